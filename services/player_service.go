package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pedrohrm/domino-league/models"
	"github.com/pedrohrm/domino-league/repositories"
	"github.com/pedrohrm/domino-league/storage"
)

type PlayerService interface {
	Create(ctx context.Context, userID int, input PlayerInput) (*models.Player, error)
	GetByID(ctx context.Context, userID, playerID int) (*models.Player, error)
	List(ctx context.Context, userID int, includeInactive bool) ([]*models.Player, error)
	Update(ctx context.Context, userID, playerID int, input PlayerInput) (*models.Player, error)
	// Delete удаляет игрока без партий насовсем; игрок с историей
	// лишь деактивируется, чтобы партии не потеряли участника.
	Delete(ctx context.Context, userID, playerID int) error
	Reactivate(ctx context.Context, userID, playerID int) (*models.Player, error)
	UploadAvatar(ctx context.Context, userID, playerID int, file io.Reader, contentType string) (*models.Player, error)
}

type PlayerInput struct {
	Name    string  `json:"name"`
	Contact *string `json:"contact,omitempty"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
}

func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
	}
}

func (s *playerService) Create(ctx context.Context, userID int, input PlayerInput) (*models.Player, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrPlayerNameRequired
	}

	player := &models.Player{
		UserID:  userID,
		Name:    input.Name,
		Contact: input.Contact,
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, userID, playerID int) (*models.Player, error) {
	player, err := s.loadOwned(ctx, userID, playerID)
	if err != nil {
		return nil, err
	}
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) List(ctx context.Context, userID int, includeInactive bool) ([]*models.Player, error) {
	players, err := s.playerRepo.ListByOwner(ctx, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	for _, p := range players {
		s.populateAvatarURL(p)
	}
	return players, nil
}

func (s *playerService) Update(ctx context.Context, userID, playerID int, input PlayerInput) (*models.Player, error) {
	player, err := s.loadOwned(ctx, userID, playerID)
	if err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrPlayerNameRequired
	}

	player.Name = input.Name
	player.Contact = input.Contact

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to update player %d: %w", playerID, err)
	}
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) Delete(ctx context.Context, userID, playerID int) error {
	player, err := s.loadOwned(ctx, userID, playerID)
	if err != nil {
		return err
	}

	referenced, err := s.playerRepo.CountGamesReferencing(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to check player %d games: %w", playerID, err)
	}

	if referenced > 0 {
		if err := s.playerRepo.SetActive(ctx, playerID, false); err != nil {
			return fmt.Errorf("failed to deactivate player %d: %w", playerID, err)
		}
		return nil
	}

	if err := s.playerRepo.Delete(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerReferenced) {
			// Партия появилась между проверкой и удалением.
			return s.playerRepo.SetActive(ctx, playerID, false)
		}
		return fmt.Errorf("failed to delete player %d: %w", playerID, err)
	}

	if player.AvatarKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *player.AvatarKey); err != nil {
			// Осиротевший файл в хранилище не критичен.
			return nil
		}
	}
	return nil
}

func (s *playerService) Reactivate(ctx context.Context, userID, playerID int) (*models.Player, error) {
	player, err := s.loadOwned(ctx, userID, playerID)
	if err != nil {
		return nil, err
	}

	if err := s.playerRepo.SetActive(ctx, playerID, true); err != nil {
		return nil, fmt.Errorf("failed to reactivate player %d: %w", playerID, err)
	}
	player.Active = true
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) UploadAvatar(ctx context.Context, userID, playerID int, file io.Reader, contentType string) (*models.Player, error) {
	player, err := s.loadOwned(ctx, userID, playerID)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, errors.New("file storage is not configured")
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/player_%d_%s%s", playerID, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar for player %d: %w", playerID, err)
	}

	oldKey := player.AvatarKey
	if err := s.playerRepo.UpdateAvatarKey(ctx, playerID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key for player %d: %w", playerID, err)
	}

	if oldKey != nil && *oldKey != result.Key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	player.AvatarKey = &result.Key
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) loadOwned(ctx context.Context, userID, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player %d: %w", playerID, err)
	}
	if player.UserID != userID {
		return nil, ErrForbiddenOperation
	}
	return player, nil
}

func (s *playerService) populateAvatarURL(player *models.Player) {
	if player == nil || player.AvatarKey == nil || *player.AvatarKey == "" || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*player.AvatarKey)
	if url != "" {
		player.AvatarURL = &url
	}
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/png":
		return ".png", nil
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: unsupported image type %q", ErrValidationFailed, contentType)
	}
}
