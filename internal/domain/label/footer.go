package label

// FooterConfig selects which sale fields are printed in the footer band.
// Fields always appear in the order product number, title, date.
type FooterConfig struct {
	IncludeProductNumber bool `json:"include_product_number"`
	IncludeTitle         bool `json:"include_title"`
	IncludeDate          bool `json:"include_date"`
}

// IsEmpty returns true when no field is selected
func (c FooterConfig) IsEmpty() bool {
	return !c.IncludeProductNumber && !c.IncludeTitle && !c.IncludeDate
}

// FooterFieldsFromNames builds a config from field names (product, title, date)
func FooterFieldsFromNames(names []string) (*FooterConfig, bool) {
	cfg := &FooterConfig{}
	for _, name := range names {
		switch name {
		case "product", "product_number", "sku":
			cfg.IncludeProductNumber = true
		case "title":
			cfg.IncludeTitle = true
		case "date":
			cfg.IncludeDate = true
		default:
			return nil, false
		}
	}
	return cfg, true
}
