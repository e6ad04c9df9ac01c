package partners

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bondly/bondly/internal/platform/db"
	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/platform/repository"
)

const (
	table   = "partners p"
	columns = "p.id, p.first_name, p.last_name, p.email, p.phone, p.company, p.profession, p.rating, p.status, p.classifications, p.notes, p.relation_history, p.created_at, p.updated_at"

	returning = "id, first_name, last_name, email, phone, company, profession, rating, status, classifications, notes, relation_history, created_at, updated_at"
)

var errNotFound = httpx.NotFound("Partenaire non trouvé")

// Repository stores partners. Delete archives instead of removing the row.
type Repository interface {
	repository.Repository[Partner, CreatePartnerRequest, UpdatePartnerRequest]
	ClassificationLabels(ctx context.Context) ([]LabelCount, error)
}

type conn interface {
	repository.DBTX
	db.Beginner
}

type pgRepository struct {
	repository.Base
	conn conn
}

// NewRepository returns a PostgreSQL-backed Repository. pool is usually a
// *pgxpool.Pool.
func NewRepository(pool conn) Repository {
	return &pgRepository{Base: repository.NewBase(pool, table), conn: pool}
}

func (r *pgRepository) FindByID(ctx context.Context, id uuid.UUID) (Partner, error) {
	row := r.DB.QueryRow(ctx, "SELECT "+columns+" FROM "+table+" WHERE p.id = $1", id)
	p, err := scanPartner(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, errNotFound
		}
		return Partner{}, fmt.Errorf("partners: find %s: %w", id, err)
	}
	return p, nil
}

func (r *pgRepository) FindAll(ctx context.Context, opts repository.ListOptions) ([]Partner, error) {
	sql, args := r.SelectPage(columns, opts)
	rows, err := r.ExecuteQuery(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("partners: list: %w", err)
	}
	defer rows.Close()

	var out []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("partners: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, in CreatePartnerRequest) (Partner, error) {
	labels, err := encodeLabels(in.Classifications)
	if err != nil {
		return Partner{}, err
	}
	var created Partner
	err = db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO partners (id, first_name, last_name, email, phone, company, profession, rating, status, classifications, notes, relation_history, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
			RETURNING `+returning,
			uuid.New(), in.FirstName, in.LastName, in.Email, in.Phone, in.Company, in.Profession,
			in.Rating, string(in.Status), labels, in.Notes, in.RelationHistory,
		)
		p, err := scanPartner(row)
		if err != nil {
			return fmt.Errorf("partners: insert: %w", err)
		}
		created = p
		return syncClassifications(ctx, tx, p.ID, p.Classifications)
	})
	if err != nil {
		return Partner{}, err
	}
	return created, nil
}

func (r *pgRepository) Update(ctx context.Context, id uuid.UUID, in UpdatePartnerRequest) (Partner, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if in.FirstName.Valid {
		set("first_name", in.FirstName.String)
	}
	if in.LastName.Valid {
		set("last_name", in.LastName.String)
	}
	if in.Email.Valid {
		set("email", in.Email.String)
	}
	if in.Phone.Valid {
		set("phone", emptyToNil(in.Phone.String))
	}
	if in.Company.Valid {
		set("company", emptyToNil(in.Company.String))
	}
	if in.Profession.Valid {
		set("profession", emptyToNil(in.Profession.String))
	}
	if in.Rating.Valid {
		set("rating", in.Rating.Int64)
	}
	if in.Status.Valid {
		set("status", in.Status.String)
	}
	if in.Classifications != nil {
		labels, err := encodeLabels(*in.Classifications)
		if err != nil {
			return Partner{}, err
		}
		set("classifications", labels)
	}
	if in.Notes.Valid {
		set("notes", emptyToNil(in.Notes.String))
	}
	if in.RelationHistory.Valid {
		set("relation_history", emptyToNil(in.RelationHistory.String))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE partners SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), returning)

	var updated Partner
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		p, err := scanPartner(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errNotFound
			}
			return fmt.Errorf("partners: update %s: %w", id, err)
		}
		updated = p
		if in.Classifications == nil {
			return nil
		}
		return syncClassifications(ctx, tx, p.ID, p.Classifications)
	})
	if err != nil {
		return Partner{}, err
	}
	return updated, nil
}

// Delete archives the partner.
func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, "UPDATE partners SET status = $1, updated_at = NOW() WHERE id = $2", string(StatusArchived), id)
	if err != nil {
		return fmt.Errorf("partners: archive %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// ClassificationLabels counts labels stored on non-archived partners.
func (r *pgRepository) ClassificationLabels(ctx context.Context) ([]LabelCount, error) {
	rows, err := r.ExecuteQuery(ctx, `
		SELECT label, COUNT(*)
		FROM partners p, jsonb_array_elements_text(p.classifications) AS label
		WHERE p.status <> $1
		GROUP BY label
		ORDER BY COUNT(*) DESC, label`, string(StatusArchived))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("partners: scan label: %w", err)
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// syncClassifications mirrors the partner's labels into the join table so
// the EXISTS classification filter sees them.
func syncClassifications(ctx context.Context, tx pgx.Tx, partnerID uuid.UUID, labels []string) error {
	if _, err := tx.Exec(ctx, "DELETE FROM partner_classifications WHERE partner_id = $1", partnerID); err != nil {
		return fmt.Errorf("partners: clear classifications: %w", err)
	}
	if len(labels) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		WITH labels AS (SELECT DISTINCT unnest($2::text[]) AS name),
		inserted AS (
			INSERT INTO classifications (id, name, label, created_at)
			SELECT gen_random_uuid(), name, name, NOW() FROM labels
			ON CONFLICT (name) DO NOTHING
			RETURNING id
		)
		INSERT INTO partner_classifications (partner_id, classification_id)
		SELECT $1, id FROM inserted
		UNION
		SELECT $1, c.id FROM classifications c JOIN labels l ON l.name = c.name
		ON CONFLICT DO NOTHING`, partnerID, labels)
	if err != nil {
		return fmt.Errorf("partners: link classifications: %w", err)
	}
	return nil
}

func scanPartner(row pgx.Row) (Partner, error) {
	var (
		p      Partner
		status string
		labels []byte
	)
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Company, &p.Profession,
		&p.Rating, &status, &labels, &p.Notes, &p.RelationHistory, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Partner{}, err
	}
	p.Status = Status(status)
	p.Classifications = []string{}
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &p.Classifications); err != nil {
			return Partner{}, fmt.Errorf("partners: decode classifications: %w", err)
		}
	}
	return p, nil
}

func encodeLabels(labels []string) ([]byte, error) {
	if labels == nil {
		labels = []string{}
	}
	b, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("partners: encode classifications: %w", err)
	}
	return b, nil
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
