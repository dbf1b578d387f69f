package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvtarkov/vampires-engine/internal/game"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store is the pgx implementation of game.Store.
//
// Expected tables (managed outside this repository):
//
//	users(id, username, in_game_name, faction, money, influence,
//	      information, force, base_money, base_influence,
//	      base_information, base_force, ideology, available_actions,
//	      max_available_actions, actions_refresh_at, is_admin,
//	      created_at, updated_at)
//	districts(id, name, owner_id, control_points, control_level,
//	      resource_multiplier, base_money, base_influence,
//	      base_information, base_force, created_at)
//	actions(id, owner_id, district_id, parent_action_id, kind, type,
//	      status, title, force, money, influence, information, on_point,
//	      won_on_point, is_positive, created_at, updated_at)
//	politicians(id, name, role, district_id, ideology, influence,
//	      created_at, updated_at)
//	user_scouts_districts(user_id, district_id)
//	cycle_state(id, last_cycle_finished)
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

var _ game.Store = (*Store)(nil)

// NewStore wraps a connection pool as a game.Store.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, log: logger}
}

const userColumns = `id, username, in_game_name, faction,
	money, influence, information, force,
	base_money, base_influence, base_information, base_force,
	ideology, available_actions, max_available_actions,
	actions_refresh_at, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*game.User, error) {
	var (
		u         game.User
		refreshAt *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.InGameName, &u.Faction,
		&u.Balance.Money, &u.Balance.Influence, &u.Balance.Information, &u.Balance.Force,
		&u.Base.Money, &u.Base.Influence, &u.Base.Information, &u.Base.Force,
		&u.Ideology, &u.AvailableActions, &u.MaxAvailableActions,
		&refreshAt, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refreshAt != nil {
		u.ActionsRefreshAt = *refreshAt
	}
	return &u, nil
}

func (s *Store) Users(ctx context.Context) ([]*game.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*game.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UserByID(ctx context.Context, id int64) (*game.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) SaveUsers(ctx context.Context, users ...*game.User) error {
	batch := &pgx.Batch{}
	for _, u := range users {
		batch.Queue(`UPDATE users SET
			money = $2, influence = $3, information = $4, force = $5,
			available_actions = $6, actions_refresh_at = $7,
			updated_at = now()
			WHERE id = $1`,
			u.ID,
			u.Balance.Money, u.Balance.Influence, u.Balance.Information, u.Balance.Force,
			u.AvailableActions, nullableTime(u.ActionsRefreshAt),
		)
	}
	return s.sendBatch(ctx, batch, "saving users")
}

const districtColumns = `id, name, owner_id, control_points, control_level,
	resource_multiplier, base_money, base_influence, base_information,
	base_force, created_at`

func scanDistrict(row pgx.Row) (*game.District, error) {
	var d game.District
	err := row.Scan(
		&d.ID, &d.Name, &d.OwnerID, &d.ControlPoints, &d.ControlLevel,
		&d.ResourceMultiplier,
		&d.Base.Money, &d.Base.Influence, &d.Base.Information, &d.Base.Force,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) Districts(ctx context.Context) ([]*game.District, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+districtColumns+` FROM districts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying districts: %w", err)
	}
	defer rows.Close()

	var districts []*game.District
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning district: %w", err)
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

func (s *Store) DistrictByID(ctx context.Context, id int64) (*game.District, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+districtColumns+` FROM districts WHERE id = $1`, id)
	d, err := scanDistrict(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying district %d: %w", id, err)
	}
	return d, nil
}

func (s *Store) SaveDistricts(ctx context.Context, districts ...*game.District) error {
	batch := &pgx.Batch{}
	for _, d := range districts {
		batch.Queue(`UPDATE districts SET
			control_points = $2, control_level = $3, resource_multiplier = $4
			WHERE id = $1`,
			d.ID, d.ControlPoints, d.ControlLevel, d.ResourceMultiplier,
		)
	}
	return s.sendBatch(ctx, batch, "saving districts")
}

func (s *Store) ReassignDistrictOwner(ctx context.Context, districtID, newOwnerID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE districts SET owner_id = $2 WHERE id = $1`,
		districtID, newOwnerID,
	)
	if err != nil {
		return fmt.Errorf("reassigning district %d: %w", districtID, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrDistrictNotFound
	}
	return nil
}

const actionColumns = `id, owner_id, district_id, parent_action_id, kind,
	type, status, title, force, money, influence, information, on_point,
	won_on_point, is_positive, created_at, updated_at`

func scanAction(row pgx.Row) (*game.Action, error) {
	var (
		a          game.Action
		districtID *int64
		parentID   *int64
		title      *string
	)
	err := row.Scan(
		&a.ID, &a.OwnerID, &districtID, &parentID, &a.Kind,
		&a.Type, &a.Status, &title,
		&a.Resources.Force, &a.Resources.Money, &a.Resources.Influence, &a.Resources.Information,
		&a.OnPoint, &a.WonOnPoint, &a.IsPositive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if districtID != nil {
		a.DistrictID = *districtID
	}
	if parentID != nil {
		a.ParentID = *parentID
	}
	if title != nil {
		a.Title = *title
	}
	return &a, nil
}

func (s *Store) Actions(ctx context.Context, filter game.ActionFilter) ([]*game.Action, error) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		clauses = append(clauses, "status = "+arg(filter.Status))
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = "+arg(filter.Kind))
	}
	if len(filter.Kinds) > 0 {
		clauses = append(clauses, "kind = ANY("+arg(filter.Kinds)+")")
	}
	if filter.Type != "" {
		clauses = append(clauses, "type = "+arg(filter.Type))
	}
	if filter.OnPoint != nil {
		clauses = append(clauses, "on_point = "+arg(*filter.OnPoint))
	}
	if filter.DistrictID != 0 {
		clauses = append(clauses, "district_id = "+arg(filter.DistrictID))
	}
	if filter.WithDistrict {
		clauses = append(clauses, "district_id IS NOT NULL")
	}
	if filter.WithParent {
		clauses = append(clauses, "parent_action_id IS NOT NULL")
	}
	if !filter.CreatedBefore.IsZero() {
		clauses = append(clauses, "created_at <= "+arg(filter.CreatedBefore))
	}

	query := `SELECT ` + actionColumns + ` FROM actions`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	var actions []*game.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *Store) ActionByID(ctx context.Context, id int64) (*game.Action, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+actionColumns+` FROM actions WHERE id = $1`, id)
	a, err := scanAction(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying action %d: %w", id, err)
	}
	return a, nil
}

func (s *Store) SaveActions(ctx context.Context, actions ...*game.Action) error {
	batch := &pgx.Batch{}
	for _, a := range actions {
		batch.Queue(`UPDATE actions SET
			force = $2, money = $3, influence = $4, information = $5,
			status = $6, won_on_point = $7, updated_at = now()
			WHERE id = $1`,
			a.ID,
			a.Resources.Force, a.Resources.Money, a.Resources.Influence, a.Resources.Information,
			a.Status, a.WonOnPoint,
		)
	}
	return s.sendBatch(ctx, batch, "saving actions")
}

func (s *Store) CloseActions(ctx context.Context, status game.ActionStatus, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE actions SET status = $1, updated_at = now() WHERE id = ANY($2)`,
		status, ids,
	)
	if err != nil {
		return fmt.Errorf("closing %d actions: %w", len(ids), err)
	}
	return nil
}

const politicianColumns = `id, name, role, district_id, ideology,
	influence, created_at, updated_at`

func (s *Store) Politicians(ctx context.Context) ([]*game.Politician, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+politicianColumns+` FROM politicians ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying politicians: %w", err)
	}
	defer rows.Close()

	var politicians []*game.Politician
	for rows.Next() {
		var (
			p          game.Politician
			districtID *int64
		)
		err := rows.Scan(
			&p.ID, &p.Name, &p.Role, &districtID, &p.Ideology,
			&p.Influence, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning politician: %w", err)
		}
		if districtID != nil {
			p.DistrictID = *districtID
		}
		politicians = append(politicians, &p)
	}
	return politicians, rows.Err()
}

func (s *Store) SavePoliticians(ctx context.Context, politicians ...*game.Politician) error {
	batch := &pgx.Batch{}
	for _, p := range politicians {
		batch.Queue(`UPDATE politicians SET
			ideology = $2, influence = $3, updated_at = now()
			WHERE id = $1`,
			p.ID, p.Ideology, p.Influence,
		)
	}
	return s.sendBatch(ctx, batch, "saving politicians")
}

func (s *Store) ScoutWatches(ctx context.Context) ([]game.ScoutWatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, district_id FROM user_scouts_districts ORDER BY user_id, district_id`)
	if err != nil {
		return nil, fmt.Errorf("querying scout watches: %w", err)
	}
	defer rows.Close()

	var watches []game.ScoutWatch
	for rows.Next() {
		var w game.ScoutWatch
		if err := rows.Scan(&w.UserID, &w.DistrictID); err != nil {
			return nil, fmt.Errorf("scanning scout watch: %w", err)
		}
		watches = append(watches, w)
	}
	return watches, rows.Err()
}

func (s *Store) ClearScoutWatches(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM user_scouts_districts`); err != nil {
		return fmt.Errorf("clearing scout watches: %w", err)
	}
	return nil
}

func (s *Store) LastCycleFinished(ctx context.Context) (time.Time, error) {
	var finished *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT last_cycle_finished FROM cycle_state WHERE id = 1`).Scan(&finished)
	if err == pgx.ErrNoRows || (err == nil && finished == nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying cycle marker: %w", err)
	}
	return finished.UTC(), nil
}

func (s *Store) SetLastCycleFinished(ctx context.Context, finished time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cycle_state (id, last_cycle_finished) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_cycle_finished = EXCLUDED.last_cycle_finished`,
		finished,
	)
	if err != nil {
		return fmt.Errorf("persisting cycle marker: %w", err)
	}
	return nil
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, op string) error {
	if batch.Len() == 0 {
		return nil
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%s (statement %d): %w", op, i, err)
		}
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
