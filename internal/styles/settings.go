package styles

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

// Mode says whether an admin fixed the category or left it to the member.
type Mode string

const (
	ModePredefined Mode = "predefined"
	ModeUserChoice Mode = "user_choice"
)

// CategorySetting is the normalized form of one style category.
type CategorySetting struct {
	Mode    Mode     `json:"mode"`
	Value   string   `json:"value,omitempty"`
	Options []string `json:"options,omitempty"`
}

// ResolvedSettings is the normalized view of a persisted settings blob.
// Extra carries categories this build does not know about so an older blob
// survives a write-back untouched.
type ResolvedSettings struct {
	Categories map[string]CategorySetting `json:"categories"`
	Extra      map[string]json.RawMessage `json:"-"`
}

const settingsVersion = 2

// Category keys as persisted (camelCase, matching the original JSON blobs).
const (
	CategoryBackground     = "background"
	CategoryClothing       = "clothing"
	CategoryClothingColors = "clothingColors"
	CategoryShotType       = "shotType"
	CategoryExpression     = "expression"
	CategoryPose           = "pose"
	CategoryBranding       = "branding"
)

var knownCategories = []string{
	CategoryBackground,
	CategoryClothing,
	CategoryClothingColors,
	CategoryShotType,
	CategoryExpression,
	CategoryPose,
	CategoryBranding,
}

var defaultOptions = map[string][]string{
	CategoryBackground:     {"studio-grey", "studio-white", "office", "outdoor", "gradient"},
	CategoryClothing:       {"business-suit", "blazer", "smart-casual", "casual"},
	CategoryClothingColors: {"navy", "charcoal", "black", "white", "burgundy"},
	CategoryShotType:       {"headshot", "half-body"},
	CategoryExpression:     {"natural-smile", "broad-smile", "serious"},
	CategoryPose:           {"front", "slight-angle", "crossed-arms"},
	CategoryBranding:       {"none", "logo-corner", "logo-backdrop"},
}

// versionedShape is the current persisted form. Older blobs are either a map
// of wrapper objects or flat "<category>Type" keys; DecodeSettings accepts all
// three and EncodeSettings writes only this one.
type versionedShape struct {
	Version    int                        `json:"version"`
	Categories map[string]json.RawMessage `json:"categories"`
}

type wrapperShape struct {
	Mode    string   `json:"mode"`
	Value   string   `json:"value,omitempty"`
	Options []string `json:"options,omitempty"`
}

// DecodeSettings normalizes a persisted settings blob of any historical shape.
// A nil or empty blob yields every category as user_choice with defaults.
func DecodeSettings(raw json.RawMessage) (*ResolvedSettings, error) {
	resolved := &ResolvedSettings{
		Categories: map[string]CategorySetting{},
		Extra:      map[string]json.RawMessage{},
	}

	if len(raw) == 0 || string(raw) == "null" {
		fillDefaults(resolved)
		return resolved, nil
	}

	var versioned versionedShape
	if err := json.Unmarshal(raw, &versioned); err == nil && versioned.Version > 0 && versioned.Categories != nil {
		if err := decodeCategoryMap(versioned.Categories, resolved); err != nil {
			return nil, err
		}
		fillDefaults(resolved)
		return resolved, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "settings blob is not a JSON object")
	}

	if looksLikeWrapperMap(top) {
		if err := decodeCategoryMap(top, resolved); err != nil {
			return nil, err
		}
		fillDefaults(resolved)
		return resolved, nil
	}

	if err := decodeFlatLegacy(top, resolved); err != nil {
		return nil, err
	}
	fillDefaults(resolved)
	return resolved, nil
}

// EncodeSettings serializes to the current versioned shape, carrying unknown
// categories through verbatim.
func EncodeSettings(resolved *ResolvedSettings) (json.RawMessage, error) {
	if resolved == nil {
		return nil, fmt.Errorf("settings required")
	}
	categories := map[string]json.RawMessage{}
	for name, setting := range resolved.Categories {
		encoded, err := json.Marshal(setting)
		if err != nil {
			return nil, err
		}
		categories[name] = encoded
	}
	for name, rawSetting := range resolved.Extra {
		if _, clash := categories[name]; !clash {
			categories[name] = rawSetting
		}
	}
	return json.Marshal(versionedShape{Version: settingsVersion, Categories: categories})
}

// FinalizeChoices merges member-supplied choices into the resolved settings,
// producing the concrete value per category used for a generation. Every
// user_choice category must be supplied a value from its options; predefined
// categories cannot be overridden.
func FinalizeChoices(resolved *ResolvedSettings, choices map[string]string) (map[string]string, error) {
	if resolved == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings required")
	}

	final := map[string]string{}
	var missing []string
	for name, setting := range resolved.Categories {
		switch setting.Mode {
		case ModePredefined:
			if choice, ok := choices[name]; ok && choice != setting.Value {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("category %q is fixed by the team admin", name)).
					WithDetails(map[string]string{"category": name})
			}
			final[name] = setting.Value
		case ModeUserChoice:
			choice, ok := choices[name]
			if !ok || strings.TrimSpace(choice) == "" {
				missing = append(missing, name)
				continue
			}
			if len(setting.Options) > 0 && !contains(setting.Options, choice) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid choice for category %q", name)).
					WithDetails(map[string]any{"category": name, "options": setting.Options})
			}
			final[name] = choice
		default:
			return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown mode %q for category %q", setting.Mode, name))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing choices for user-selectable categories").
			WithDetails(map[string][]string{"missing": missing})
	}
	return final, nil
}

func decodeCategoryMap(entries map[string]json.RawMessage, resolved *ResolvedSettings) error {
	for name, rawSetting := range entries {
		if !isKnownCategory(name) {
			resolved.Extra[name] = rawSetting
			continue
		}
		var wrapper wrapperShape
		if err := json.Unmarshal(rawSetting, &wrapper); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("malformed category %q", name))
		}
		setting, err := settingFromWrapper(name, wrapper)
		if err != nil {
			return err
		}
		resolved.Categories[name] = setting
	}
	return nil
}

func settingFromWrapper(name string, wrapper wrapperShape) (CategorySetting, error) {
	switch Mode(wrapper.Mode) {
	case ModePredefined:
		return CategorySetting{Mode: ModePredefined, Value: wrapper.Value}, nil
	case ModeUserChoice:
		options := wrapper.Options
		if len(options) == 0 {
			options = defaultOptions[name]
		}
		return CategorySetting{Mode: ModeUserChoice, Options: options}, nil
	default:
		return CategorySetting{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown mode %q for category %q", wrapper.Mode, name))
	}
}

// decodeFlatLegacy handles the oldest shape: "<category>Type" keys holding the
// admin-fixed value. A present key means predefined; anything else is left to
// fillDefaults.
func decodeFlatLegacy(top map[string]json.RawMessage, resolved *ResolvedSettings) error {
	for key, rawValue := range top {
		name, ok := categoryForLegacyKey(key)
		if !ok {
			resolved.Extra[key] = rawValue
			continue
		}
		var value string
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("malformed legacy key %q", key))
		}
		resolved.Categories[name] = CategorySetting{Mode: ModePredefined, Value: value}
	}
	return nil
}

func categoryForLegacyKey(key string) (string, bool) {
	if !strings.HasSuffix(key, "Type") {
		return "", false
	}
	name := strings.TrimSuffix(key, "Type")
	if name == "shot" {
		// Legacy blobs wrote "shotType" for the shotType category itself.
		name = CategoryShotType
	}
	if isKnownCategory(name) {
		return name, true
	}
	return "", false
}

func looksLikeWrapperMap(top map[string]json.RawMessage) bool {
	for name, rawSetting := range top {
		if !isKnownCategory(name) {
			continue
		}
		var wrapper struct {
			Mode *string `json:"mode"`
		}
		if err := json.Unmarshal(rawSetting, &wrapper); err == nil && wrapper.Mode != nil {
			return true
		}
	}
	return false
}

func fillDefaults(resolved *ResolvedSettings) {
	for _, name := range knownCategories {
		if _, ok := resolved.Categories[name]; !ok {
			resolved.Categories[name] = CategorySetting{Mode: ModeUserChoice, Options: defaultOptions[name]}
		}
	}
}

func isKnownCategory(name string) bool {
	return contains(knownCategories, name)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
