package catalog

import "time"

// Product is a storefront catalog row. Price is in minor currency units
// (kopecks); money never passes through floating point.
type Product struct {
	ID                       int64     `json:"id"`
	Title                    string    `json:"title"`
	Description              string    `json:"description"`
	Price                    int64     `json:"price"`
	Category                 string    `json:"category"`
	Type                     string    `json:"type"`
	SamplePDFURL             string    `json:"sample_pdf_url"`
	FullPDFWithAnswersURL    string    `json:"full_pdf_with_answers_url"`
	FullPDFWithoutAnswersURL string    `json:"full_pdf_without_answers_url"`
	Trainer1URL              string    `json:"trainer1_url"`
	Trainer2URL              string    `json:"trainer2_url"`
	Trainer3URL              string    `json:"trainer3_url"`
	IsFree                   bool      `json:"is_free"`
	PreviewImageURL          string    `json:"preview_image_url"`
	CreatedAt                time.Time `json:"created_at"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalProducts int `json:"total_products"`
	TotalFiles    int `json:"total_files"`
}
