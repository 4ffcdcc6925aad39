package services

import (
	"context"
	"sync"
	"time"

	"github.com/pedrohrm/domino-league/models"
	"github.com/pedrohrm/domino-league/repositories"
)

// In-memory репозитории для сервисных тестов.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailTaken
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	nextID  int
	players map[int]*models.Player
	games   *fakeGameRepo
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{nextID: 1, players: make(map[int]*models.Player)}
}

func (f *fakePlayerRepo) add(userID int, name string) *models.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Player{
		ID:        f.nextID,
		UserID:    userID,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.players[p.ID] = p
	clone := *p
	return &clone
}

func (f *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	player.ID = f.nextID
	f.nextID++
	player.Active = true
	player.CreatedAt = time.Now()
	clone := *player
	f.players[player.ID] = &clone
	return nil
}

func (f *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakePlayerRepo) ListByOwner(ctx context.Context, userID int, includeInactive bool) ([]*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Player{}
	for _, p := range f.players {
		if p.UserID != userID {
			continue
		}
		if !includeInactive && !p.Active {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}
	return result, nil
}

func (f *fakePlayerRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Player{}
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			clone := *p
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakePlayerRepo) Update(ctx context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[player.ID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Name = player.Name
	p.Contact = player.Contact
	return nil
}

func (f *fakePlayerRepo) SetActive(ctx context.Context, id int, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Active = active
	return nil
}

func (f *fakePlayerRepo) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.AvatarKey = avatarKey
	return nil
}

func (f *fakePlayerRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(f.players, id)
	return nil
}

func (f *fakePlayerRepo) CountGamesReferencing(ctx context.Context, id int) (int, error) {
	if f.games == nil {
		return 0, nil
	}
	games, err := f.games.ListByPlayer(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(games), nil
}

func (f *fakePlayerRepo) CountByOwner(ctx context.Context, userID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.players {
		if p.UserID == userID && p.Active {
			count++
		}
	}
	return count, nil
}

type fakeCompetitionRepo struct {
	mu           sync.Mutex
	nextID       int
	competitions map[int]*models.Competition
	rosters      map[int]map[int]bool
	players      *fakePlayerRepo
}

func newFakeCompetitionRepo(players *fakePlayerRepo) *fakeCompetitionRepo {
	return &fakeCompetitionRepo{
		nextID:       1,
		competitions: make(map[int]*models.Competition),
		rosters:      make(map[int]map[int]bool),
		players:      players,
	}
}

func (f *fakeCompetitionRepo) Create(ctx context.Context, competition *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	competition.ID = f.nextID
	f.nextID++
	competition.CreatedAt = time.Now()
	clone := *competition
	f.competitions[competition.ID] = &clone
	f.rosters[competition.ID] = make(map[int]bool)
	return nil
}

func (f *fakeCompetitionRepo) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.competitions[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCompetitionRepo) ListByOwner(ctx context.Context, userID int) ([]*models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Competition{}
	for _, c := range f.competitions {
		if c.UserID == userID {
			clone := *c
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakeCompetitionRepo) Update(ctx context.Context, competition *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.competitions[competition.ID]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.Name = competition.Name
	c.Description = competition.Description
	c.StartDate = competition.StartDate
	return nil
}

func (f *fakeCompetitionRepo) UpdateStatus(ctx context.Context, id int, status models.CompetitionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.competitions[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeCompetitionRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.competitions[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.LogoKey = logoKey
	return nil
}

func (f *fakeCompetitionRepo) SaveChampionSummary(ctx context.Context, competition *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.competitions[competition.ID]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.Status = competition.Status
	c.BestPlayerID = competition.BestPlayerID
	c.BestTeamPlayer1ID = competition.BestTeamPlayer1ID
	c.BestTeamPlayer2ID = competition.BestTeamPlayer2ID
	c.PlayerScores = competition.PlayerScores
	c.TeamScores = competition.TeamScores
	c.FinishedAt = competition.FinishedAt
	return nil
}

func (f *fakeCompetitionRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.competitions[id]; !ok {
		return repositories.ErrCompetitionNotFound
	}
	delete(f.competitions, id)
	delete(f.rosters, id)
	return nil
}

func (f *fakeCompetitionRepo) AddPlayer(ctx context.Context, competitionID, playerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	roster, ok := f.rosters[competitionID]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	if roster[playerID] {
		return repositories.ErrCompetitionPlayerConflict
	}
	roster[playerID] = true
	return nil
}

func (f *fakeCompetitionRepo) RemovePlayer(ctx context.Context, competitionID, playerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	roster, ok := f.rosters[competitionID]
	if !ok || !roster[playerID] {
		return repositories.ErrCompetitionPlayerNotFound
	}
	delete(roster, playerID)
	return nil
}

func (f *fakeCompetitionRepo) ListPlayers(ctx context.Context, competitionID int) ([]*models.Player, error) {
	f.mu.Lock()
	roster := f.rosters[competitionID]
	ids := make([]int, 0, len(roster))
	for id := range roster {
		ids = append(ids, id)
	}
	f.mu.Unlock()

	return f.players.ListByIDs(ctx, ids)
}

func (f *fakeCompetitionRepo) CountByOwner(ctx context.Context, userID int, status *models.CompetitionStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.competitions {
		if c.UserID != userID {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		count++
	}
	return count, nil
}

type fakeGameRepo struct {
	mu     sync.Mutex
	nextID int
	games  map[int]*models.Game
	comps  *fakeCompetitionRepo
}

func newFakeGameRepo(comps *fakeCompetitionRepo) *fakeGameRepo {
	return &fakeGameRepo{nextID: 1, games: make(map[int]*models.Game), comps: comps}
}

func cloneGame(g *models.Game) *models.Game {
	clone := *g
	clone.Rounds = append([]models.Round(nil), g.Rounds...)
	return &clone
}

func (f *fakeGameRepo) Create(ctx context.Context, game *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	game.ID = f.nextID
	f.nextID++
	game.CreatedAt = time.Now()
	f.games[game.ID] = cloneGame(game)
	return nil
}

func (f *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return cloneGame(g), nil
}

func (f *fakeGameRepo) GetByPublicID(ctx context.Context, publicID string) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.PublicID == publicID {
			return cloneGame(g), nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (f *fakeGameRepo) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Game{}
	for id := 1; id < f.nextID; id++ {
		g, ok := f.games[id]
		if ok && g.CompetitionID == competitionID {
			result = append(result, cloneGame(g))
		}
	}
	return result, nil
}

func (f *fakeGameRepo) ListByPlayer(ctx context.Context, playerID int) ([]*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Game{}
	for id := 1; id < f.nextID; id++ {
		g, ok := f.games[id]
		if !ok {
			continue
		}
		for _, pid := range g.PlayerIDs() {
			if pid == playerID {
				result = append(result, cloneGame(g))
				break
			}
		}
	}
	return result, nil
}

func (f *fakeGameRepo) Save(ctx context.Context, game *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[game.ID]; !ok {
		return repositories.ErrGameNotFound
	}
	f.games[game.ID] = cloneGame(game)
	return nil
}

func (f *fakeGameRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(f.games, id)
	return nil
}

func (f *fakeGameRepo) CountByOwner(ctx context.Context, userID int, status *models.GameStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, g := range f.games {
		comp, ok := f.comps.competitions[g.CompetitionID]
		if !ok || comp.UserID != userID {
			continue
		}
		if status != nil && g.Status != *status {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakeGameRepo) CountSpecialByOwner(ctx context.Context, userID int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buchudas, buchudasDeRe := 0, 0
	for _, g := range f.games {
		comp, ok := f.comps.competitions[g.CompetitionID]
		if !ok || comp.UserID != userID || g.Status != models.GameStatusFinished {
			continue
		}
		if g.IsBuchuda {
			buchudas++
		}
		if g.IsBuchudaDeRe {
			buchudasDeRe++
		}
	}
	return buchudas, buchudasDeRe, nil
}
