package enums

import "fmt"

// StyleCategory names one customizable dimension of a photo style.
type StyleCategory string

const (
	StyleCategoryBackground     StyleCategory = "background"
	StyleCategoryClothing       StyleCategory = "clothing"
	StyleCategoryClothingColors StyleCategory = "clothing_colors"
	StyleCategoryShotType       StyleCategory = "shot_type"
	StyleCategoryExpression     StyleCategory = "expression"
	StyleCategoryPose           StyleCategory = "pose"
	StyleCategoryBranding       StyleCategory = "branding"
)

var validStyleCategories = []StyleCategory{
	StyleCategoryBackground,
	StyleCategoryClothing,
	StyleCategoryClothingColors,
	StyleCategoryShotType,
	StyleCategoryExpression,
	StyleCategoryPose,
	StyleCategoryBranding,
}

// StyleCategories returns every known category in canonical order.
func StyleCategories() []StyleCategory {
	out := make([]StyleCategory, len(validStyleCategories))
	copy(out, validStyleCategories)
	return out
}

// IsValid reports whether the value is a known StyleCategory.
func (c StyleCategory) IsValid() bool {
	for _, candidate := range validStyleCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseStyleCategory converts raw input into a StyleCategory.
func ParseStyleCategory(value string) (StyleCategory, error) {
	for _, candidate := range validStyleCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid style category %q", value)
}

// StyleMode distinguishes admin-predefined values from user choice.
type StyleMode string

const (
	StyleModePredefined StyleMode = "predefined"
	StyleModeUserChoice StyleMode = "user_choice"
)

var validStyleModes = []StyleMode{
	StyleModePredefined,
	StyleModeUserChoice,
}

// IsValid reports whether the value is a known StyleMode.
func (m StyleMode) IsValid() bool {
	for _, candidate := range validStyleModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseStyleMode converts raw input into a StyleMode.
func ParseStyleMode(value string) (StyleMode, error) {
	for _, candidate := range validStyleModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid style mode %q", value)
}
