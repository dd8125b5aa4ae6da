package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"flip-lending/domain"
)

const uniqueViolation = "23505"

// GatewayPostgres implements Gateway on PostgreSQL. Money and ratio columns
// are NUMERIC and travel through decimal.Decimal.
type GatewayPostgres struct {
	pool *pgxpool.Pool
}

func NewGatewayPostgres(pool *pgxpool.Pool) *GatewayPostgres {
	return &GatewayPostgres{pool: pool}
}

func (r *GatewayPostgres) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check: %w", err)
	}
	return nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const dealColumns = `
	id, borrower_id, address, city, state, zip, description, status,
	purchase_price, rehab_budget, arv, ltv, ltc,
	loan_amount, interest_rate, points, hold_period_months, exit_strategy,
	created_at, updated_at`

func (r *GatewayPostgres) CreateDeal(ctx context.Context, deal domain.Deal) error {
	query := `INSERT INTO deals (` + dealColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`

	_, err := r.pool.Exec(ctx, query,
		deal.ID, deal.BorrowerID, deal.Address, deal.City, deal.State, deal.Zip, deal.Description, string(deal.Status),
		money(deal.PurchasePrice), money(deal.RehabBudget), money(deal.AfterRepairValue),
		money(deal.LoanToValue), money(deal.LoanToCost),
		money(deal.Structure.LoanAmount), decimal.NewFromFloat(deal.Structure.InterestRate),
		decimal.NewFromFloat(deal.Structure.Points), deal.Structure.HoldPeriodMonths, deal.Structure.ExitStrategy,
		deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("deal %s: %w", deal.ID, domain.ErrConflict)
		}
		return fmt.Errorf("save deal: %w", err)
	}
	return nil
}

func (r *GatewayPostgres) FindDeal(ctx context.Context, id string) (domain.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`

	deal, err := scanDeal(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deal{}, fmt.Errorf("deal %s: %w", id, domain.ErrNotFound)
	}
	return deal, err
}

func (r *GatewayPostgres) ListDealsByStatus(ctx context.Context, status domain.DealStatus) ([]domain.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE status = $1 ORDER BY created_at DESC`
	return r.queryDeals(ctx, query, string(status))
}

func (r *GatewayPostgres) ListDealsByBorrower(ctx context.Context, borrowerID string) ([]domain.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE borrower_id = $1 ORDER BY created_at DESC`
	return r.queryDeals(ctx, query, borrowerID)
}

func (r *GatewayPostgres) queryDeals(ctx context.Context, query string, args ...any) ([]domain.Deal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	deals := []domain.Deal{}
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

func scanDeal(row pgx.Row) (domain.Deal, error) {
	var d domain.Deal
	var status string
	var purchasePrice, rehabBudget, arv, ltv, ltc decimal.Decimal
	var loanAmount, interestRate, points decimal.Decimal

	err := row.Scan(
		&d.ID, &d.BorrowerID, &d.Address, &d.City, &d.State, &d.Zip, &d.Description, &status,
		&purchasePrice, &rehabBudget, &arv, &ltv, &ltc,
		&loanAmount, &interestRate, &points, &d.Structure.HoldPeriodMonths, &d.Structure.ExitStrategy,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Deal{}, err
		}
		return domain.Deal{}, fmt.Errorf("scan deal: %w", err)
	}

	d.Status = domain.DealStatus(status)
	d.PurchasePrice = purchasePrice.InexactFloat64()
	d.RehabBudget = rehabBudget.InexactFloat64()
	d.AfterRepairValue = arv.InexactFloat64()
	d.LoanToValue = ltv.InexactFloat64()
	d.LoanToCost = ltc.InexactFloat64()
	d.Structure.LoanAmount = loanAmount.InexactFloat64()
	d.Structure.InterestRate = interestRate.InexactFloat64()
	d.Structure.Points = points.InexactFloat64()
	return d, nil
}

func (r *GatewayPostgres) UpdateDealStatus(ctx context.Context, change domain.StatusChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE deals SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		change.DealID, string(change.To), change.At, string(change.From),
	)
	if err != nil {
		return fmt.Errorf("update deal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return staleOrMissing(ctx, tx, "deals", "deal", change.DealID, string(change.From))
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO deal_status_changes (deal_id, from_status, to_status, actor_id, changed_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		change.DealID, string(change.From), string(change.To), change.ActorID, change.At,
	)
	if err != nil {
		return fmt.Errorf("record status change: %w", err)
	}

	return tx.Commit(ctx)
}

// staleOrMissing explains an UPDATE guarded on status that touched no rows.
func staleOrMissing(ctx context.Context, q pgx.Tx, table, kind, id, expected string) error {
	var current string
	err := q.QueryRow(ctx, `SELECT status FROM `+table+` WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load %s status: %w", kind, err)
	}
	return fmt.Errorf("%s %s is %s, not %s: %w", kind, id, current, expected, domain.ErrInvalidTransition)
}

func (r *GatewayPostgres) ListStatusChanges(ctx context.Context, dealID string) ([]domain.StatusChange, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT deal_id, from_status, to_status, actor_id, changed_at
		 FROM deal_status_changes WHERE deal_id = $1 ORDER BY changed_at, id`, dealID)
	if err != nil {
		return nil, fmt.Errorf("query status changes: %w", err)
	}
	defer rows.Close()

	changes := []domain.StatusChange{}
	for rows.Next() {
		var (
			c        domain.StatusChange
			from, to string
		)
		if err := rows.Scan(&c.DealID, &from, &to, &c.ActorID, &c.At); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		c.From = domain.DealStatus(from)
		c.To = domain.DealStatus(to)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (r *GatewayPostgres) SaveProfile(ctx context.Context, profile domain.BorrowerProfile) error {
	query := `
		INSERT INTO borrower_profiles (borrower_id, credit_score, completed_deals)
		VALUES ($1, $2, $3)
		ON CONFLICT (borrower_id) DO UPDATE SET
			credit_score    = EXCLUDED.credit_score,
			completed_deals = EXCLUDED.completed_deals
	`
	if _, err := r.pool.Exec(ctx, query, profile.BorrowerID, profile.CreditScore, profile.CompletedDeals); err != nil {
		return fmt.Errorf("save borrower profile: %w", err)
	}
	return nil
}

func (r *GatewayPostgres) FindProfile(ctx context.Context, borrowerID string) (domain.BorrowerProfile, error) {
	p := domain.BorrowerProfile{BorrowerID: borrowerID}
	err := r.pool.QueryRow(ctx,
		`SELECT credit_score, completed_deals FROM borrower_profiles WHERE borrower_id = $1`,
		borrowerID,
	).Scan(&p.CreditScore, &p.CompletedDeals)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BorrowerProfile{}, fmt.Errorf("profile %s: %w", borrowerID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.BorrowerProfile{}, fmt.Errorf("scan borrower profile: %w", err)
	}
	return p, nil
}

func (r *GatewayPostgres) SaveLender(ctx context.Context, lender domain.Lender) error {
	query := `
		INSERT INTO lenders (id, name, email, max_loan_amount, max_ltv, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name            = EXCLUDED.name,
			email           = EXCLUDED.email,
			max_loan_amount = EXCLUDED.max_loan_amount,
			max_ltv         = EXCLUDED.max_ltv
	`
	_, err := r.pool.Exec(ctx, query,
		lender.ID, lender.Name, lender.Email,
		money(lender.MaxLoanAmount), money(lender.MaxLTV), lender.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save lender: %w", err)
	}
	return nil
}

const lenderColumns = `id, name, email, max_loan_amount, max_ltv, created_at`

func scanLender(row pgx.Row) (domain.Lender, error) {
	var (
		l                     domain.Lender
		maxLoanAmount, maxLTV decimal.Decimal
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &maxLoanAmount, &maxLTV, &l.CreatedAt); err != nil {
		return domain.Lender{}, err
	}
	l.MaxLoanAmount = maxLoanAmount.InexactFloat64()
	l.MaxLTV = maxLTV.InexactFloat64()
	return l, nil
}

func (r *GatewayPostgres) FindLender(ctx context.Context, id string) (domain.Lender, error) {
	l, err := scanLender(r.pool.QueryRow(ctx, `SELECT `+lenderColumns+` FROM lenders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lender{}, fmt.Errorf("lender %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Lender{}, fmt.Errorf("scan lender: %w", err)
	}
	return l, nil
}

func (r *GatewayPostgres) ListLenders(ctx context.Context) ([]domain.Lender, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lenderColumns+` FROM lenders ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query lenders: %w", err)
	}
	defer rows.Close()

	lenders := []domain.Lender{}
	for rows.Next() {
		l, err := scanLender(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lender: %w", err)
		}
		lenders = append(lenders, l)
	}
	return lenders, rows.Err()
}

func (r *GatewayPostgres) CreateMatch(ctx context.Context, match domain.Match) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO matches (id, deal_id, lender_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		match.ID, match.DealID, match.LenderID, string(match.Status), match.CreatedAt, match.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("match for deal %s and lender %s: %w", match.DealID, match.LenderID, domain.ErrConflict)
		}
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

const matchColumns = `id, deal_id, lender_id, status, created_at, updated_at`

func scanMatch(row pgx.Row) (domain.Match, error) {
	var (
		m      domain.Match
		status string
	)
	if err := row.Scan(&m.ID, &m.DealID, &m.LenderID, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return domain.Match{}, err
	}
	m.Status = domain.MatchStatus(status)
	return m, nil
}

func (r *GatewayPostgres) FindMatch(ctx context.Context, id string) (domain.Match, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Match{}, fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Match{}, fmt.Errorf("scan match: %w", err)
	}
	return m, nil
}

func (r *GatewayPostgres) ListMatchesByDeal(ctx context.Context, dealID string) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE deal_id = $1 ORDER BY created_at`, dealID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	matches := []domain.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *GatewayPostgres) UpdateMatchStatus(ctx context.Context, id string, from, to domain.MatchStatus, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE matches SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		id, string(to), at, string(from),
	)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return staleOrMissing(ctx, tx, "matches", "match", id, string(from))
	}
	return tx.Commit(ctx)
}

func (r *GatewayPostgres) AddNote(ctx context.Context, note domain.Note) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO deal_notes (id, deal_id, author_id, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
		note.ID, note.DealID, note.AuthorID, note.Body, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

func (r *GatewayPostgres) ListNotes(ctx context.Context, dealID string) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, deal_id, author_id, body, created_at FROM deal_notes WHERE deal_id = $1 ORDER BY created_at`,
		dealID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.DealID, &n.AuthorID, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
