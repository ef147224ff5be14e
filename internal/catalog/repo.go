package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProductNotFound = errors.New("product not found")

const productColumns = `id, title, COALESCE(description,''), price, COALESCE(category,''), COALESCE(type,''),
	COALESCE(sample_pdf_url,''), COALESCE(full_pdf_with_answers_url,''), COALESCE(full_pdf_without_answers_url,''),
	COALESCE(trainer1_url,''), COALESCE(trainer2_url,''), COALESCE(trainer3_url,''),
	is_free, COALESCE(preview_image_url,''), created_at`

type Repo struct{ DB *pgxpool.Pool }

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Category, &p.Type,
		&p.SamplePDFURL, &p.FullPDFWithAnswersURL, &p.FullPDFWithoutAnswersURL,
		&p.Trainer1URL, &p.Trainer2URL, &p.Trainer3URL,
		&p.IsFree, &p.PreviewImageURL, &p.CreatedAt)
	return p, err
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns only the rows that exist; callers decide what a partial
// result means (404 for checkout, skipped line items for the reconciler).
func (r *Repo) GetByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids))
	params := ""
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id IN (`+params+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	return r.DB.QueryRow(ctx, `
		INSERT INTO products (title, description, price, category, type,
			sample_pdf_url, full_pdf_with_answers_url, full_pdf_without_answers_url,
			trainer1_url, trainer2_url, trainer3_url, is_free, preview_image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at`,
		p.Title, p.Description, p.Price, p.Category, p.Type,
		p.SamplePDFURL, p.FullPDFWithAnswersURL, p.FullPDFWithoutAnswersURL,
		p.Trainer1URL, p.Trainer2URL, p.Trainer3URL, p.IsFree, p.PreviewImageURL,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *Repo) Update(ctx context.Context, p *Product) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE products SET title=$1, description=$2, price=$3, category=$4, type=$5,
			sample_pdf_url=$6, full_pdf_with_answers_url=$7, full_pdf_without_answers_url=$8,
			trainer1_url=$9, trainer2_url=$10, trainer3_url=$11, is_free=$12, preview_image_url=$13
		WHERE id=$14`,
		p.Title, p.Description, p.Price, p.Category, p.Type,
		p.SamplePDFURL, p.FullPDFWithAnswersURL, p.FullPDFWithoutAnswersURL,
		p.Trainer1URL, p.Trainer2URL, p.Trainer3URL, p.IsFree, p.PreviewImageURL, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(
				(CASE WHEN COALESCE(sample_pdf_url,'') <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN COALESCE(full_pdf_with_answers_url,'') <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN COALESCE(full_pdf_without_answers_url,'') <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN COALESCE(trainer1_url,'') <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN COALESCE(trainer2_url,'') <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN COALESCE(trainer3_url,'') <> '' THEN 1 ELSE 0 END)
			), 0)
		FROM products`).Scan(&s.TotalProducts, &s.TotalFiles)
	return s, err
}
