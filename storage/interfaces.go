package storage

import "broadband-compare/models"

// DealWriter persists a finished deal list to one output format.
type DealWriter interface {
	// Write stores the deals at path, creating parent directories as needed.
	Write(deals []models.Deal, path string) error
	// Format returns the file extension this writer produces, without dot.
	Format() string
}

// dealColumns is the shared column order for tabular outputs. Price and
// speed lead because they are what comparisons sort on.
var dealColumns = []string{
	"provider",
	"deal_name",
	"monthly_price",
	"upfront_cost",
	"total_contract_cost",
	"download_speed",
	"upload_speed",
	"contract_length",
	"data_allowance",
	"technology_type",
	"installation_type",
	"promotions",
	"postcode",
	"address",
	"url",
	"extraction_timestamp",
}
