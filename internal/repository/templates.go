package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docforge/docforge/constants"
	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// TemplateRepository persists versioned templates. Updates use the version as
// an optimistic-concurrency token; a stale write is rejected with a conflict
// and leaves the stored template unchanged.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.Template) (*model.Template, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Template, error)
	GetByName(ctx context.Context, name string) (*model.Template, error)
	Update(ctx context.Context, tpl *model.Template, baseVersion int64) (*model.Template, error)
	List(ctx context.Context) ([]*model.Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewTemplateRepository(db *sql.DB, logger *slog.Logger) TemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateRepo{db: db, log: logger}
}

func validateTemplate(tpl *model.Template) error {
	v := common.NewValidator()
	v.Field("name", tpl.Name, common.Required, common.MaxLength(255))
	v.Field("status", tpl.Status, common.OneOf(constants.TemplateStatuses...))
	if err := v.Error(); err != nil {
		return err
	}
	for name, rule := range tpl.Fields {
		if err := rule.Validate(); err != nil {
			return common.WrapError(err, fmt.Sprintf("field %q", name))
		}
	}
	return nil
}

func (r *templateRepo) Create(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}
	out := tpl.Clone()
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	out.Version = 1
	now := time.Now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now

	fieldsJSON, selectorsJSON, err := encodeTemplate(out)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, fields_json, selectors_json, extraction_method, status, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID.String(), out.Name, fieldsJSON, selectorsJSON,
		out.ExtractionMethod, out.Status, out.Version, out.CreatedAt, out.UpdatedAt,
	)
	if err != nil {
		return nil, common.WrapError(err, "insert template")
	}
	r.log.Info("repository.template.created", "id", out.ID, "name", out.Name)
	return out, nil
}

func (r *templateRepo) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	row := r.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id.String())
	return scanTemplate(row)
}

func (r *templateRepo) GetByName(ctx context.Context, name string) (*model.Template, error) {
	row := r.db.QueryRowContext(ctx, selectCols+` WHERE name = ? ORDER BY created_at LIMIT 1`, name)
	return scanTemplate(row)
}

// Update replaces the whole fields map atomically. The WHERE clause carries
// the caller's base version; zero rows affected means someone else won.
func (r *templateRepo) Update(ctx context.Context, tpl *model.Template, baseVersion int64) (*model.Template, error) {
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}
	out := tpl.Clone()
	out.Version = baseVersion + 1
	out.UpdatedAt = time.Now().UTC()

	fieldsJSON, selectorsJSON, err := encodeTemplate(out)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE templates
		SET name = ?, fields_json = ?, selectors_json = ?, extraction_method = ?, status = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		out.Name, fieldsJSON, selectorsJSON, out.ExtractionMethod, out.Status, out.Version, out.UpdatedAt,
		out.ID.String(), baseVersion,
	)
	if err != nil {
		return nil, common.WrapError(err, "update template")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, common.WrapError(err, "update template")
	}
	if n == 0 {
		// Either the template is gone or the base version is stale.
		if _, gerr := r.Get(ctx, out.ID); gerr != nil {
			return nil, gerr
		}
		r.log.Warn("repository.template.conflict", "id", out.ID, "base_version", baseVersion)
		return nil, common.ConflictError(
			fmt.Sprintf("template %s was modified concurrently (base version %d)", out.ID, baseVersion))
	}
	r.log.Info("repository.template.updated", "id", out.ID, "version", out.Version)
	return out, nil
}

func (r *templateRepo) List(ctx context.Context) ([]*model.Template, error) {
	rows, err := r.db.QueryContext(ctx, selectCols+` ORDER BY created_at`)
	if err != nil {
		return nil, common.WrapError(err, "list templates")
	}
	defer rows.Close()

	var out []*model.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func (r *templateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id.String())
	if err != nil {
		return common.WrapError(err, "delete template")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const selectCols = `
	SELECT id, name, fields_json, selectors_json, extraction_method, status, version, created_at, updated_at
	FROM templates`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var (
		tpl           model.Template
		idStr         string
		fieldsJSON    string
		selectorsJSON string
	)
	err := row.Scan(&idStr, &tpl.Name, &fieldsJSON, &selectorsJSON,
		&tpl.ExtractionMethod, &tpl.Status, &tpl.Version, &tpl.CreatedAt, &tpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "scan template")
	}
	if tpl.ID, err = uuid.Parse(idStr); err != nil {
		return nil, common.WrapError(err, "parse template id")
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &tpl.Fields); err != nil {
		return nil, common.WrapError(err, "decode template fields")
	}
	if err := json.Unmarshal([]byte(selectorsJSON), &tpl.Selectors); err != nil {
		return nil, common.WrapError(err, "decode template selectors")
	}
	return &tpl, nil
}

func encodeTemplate(tpl *model.Template) (fieldsJSON, selectorsJSON string, err error) {
	fb, err := json.Marshal(tpl.Fields)
	if err != nil {
		return "", "", common.WrapError(err, "encode template fields")
	}
	if tpl.Selectors == nil {
		tpl.Selectors = []model.Selector{}
	}
	sb, err := json.Marshal(tpl.Selectors)
	if err != nil {
		return "", "", common.WrapError(err, "encode template selectors")
	}
	return string(fb), string(sb), nil
}
