package domain

import (
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/shopspring/decimal"
)

// Product описывает товар в документе индекса.
// Списки на двух языках редактируются независимо, их длины могут не совпадать.
type Product struct {
	ProductID             string                 `json:"product_id,omitempty"`
	ID                    string                 `json:"id,omitempty"`         // ключ строки JSONL
	ItemIndex             any                    `json:"itemIndex,omitempty"`  // номер варианта в JSONL, число или строка
	Name                  string                 `json:"name,omitempty"`
	Description           string                 `json:"description,omitempty"`
	Brand                 string                 `json:"brand,omitempty"`
	LeadTimeDays          *float64               `json:"lead_time_days,omitempty"`
	OriginalPrice         *float64               `json:"original_price,omitempty"`
	OriginalPriceCurrency string                 `json:"original_price_currency,omitempty"`
	PriceNTD              *float64               `json:"price_ntd,omitempty"`
	ImageURLs             []string               `json:"image_urls,omitempty"`
	ResourceURLs          []string               `json:"resource_urls,omitempty"`
	Dimensions            *Dimensions            `json:"dimensions,omitempty"`
	WarrantyYears         *float64               `json:"warranty_years,omitempty"`
	Customizations        []ProductCustomization `json:"product_customizations,omitempty"`

	ColorsEnglish               []string `json:"colors_english,omitempty"`
	FinishesEnglish             []string `json:"product_finishes_english,omitempty"`
	MaterialsEnglish            []string `json:"product_materials_english,omitempty"`
	AdditionalAttributesEnglish []string `json:"additional_attributes_english,omitempty"`
	ColorsChinese               []string `json:"colors_chinese,omitempty"`
	FinishesChinese             []string `json:"product_finishes_chinese,omitempty"`
	MaterialsChinese            []string `json:"product_materials_chinese,omitempty"`
	AdditionalAttributesChinese []string `json:"additional_attributes_chinese,omitempty"`

	OtherAttributes []KeyValue `json:"other_attributes,omitempty"`
}

type Dimensions struct {
	WidthCm  *float64 `json:"width_cm,omitempty"`
	LengthCm *float64 `json:"length_cm,omitempty"`
	HeightCm *float64 `json:"height_cm,omitempty"`
}

type ProductCustomization struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductMetadata — краткая запись для списка товаров.
type ProductMetadata struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var supportedCurrencies = map[string]struct{}{
	"USD": {},
	"GBP": {},
}

// Validate проверяет числовые поля товара. Пустые поля допустимы.
func (p *Product) Validate() error {
	for _, price := range []*float64{p.OriginalPrice, p.PriceNTD} {
		if price == nil {
			continue
		}
		if err := validatePrice(*price); err != nil {
			return err
		}
	}

	if p.OriginalPriceCurrency != "" {
		if _, ok := supportedCurrencies[p.OriginalPriceCurrency]; !ok {
			return e.ErrUnsupportedCurrency
		}
	}

	measures := []*float64{p.LeadTimeDays, p.WarrantyYears}
	if p.Dimensions != nil {
		measures = append(measures, p.Dimensions.WidthCm, p.Dimensions.LengthCm, p.Dimensions.HeightCm)
	}
	for _, m := range measures {
		if m != nil && *m < 0 {
			return e.ErrNegativeMeasure
		}
	}

	return nil
}

// validatePrice: цена неотрицательна и содержит не больше двух знаков после запятой.
func validatePrice(v float64) error {
	d := decimal.NewFromFloat(v)

	if d.IsNegative() {
		return e.ErrInvalidPrice
	}

	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return e.ErrInvalidPrice
	}

	if d.Exponent() < -2 {
		return e.ErrPricePrecision
	}

	return nil
}
