package style

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/wippyai/layout-bridge/errors"
)

var justifyAliases = map[string]Justify{
	"flex-start": JustifyStart,
	"flex-end":   JustifyEnd,
}

var alignAliases = map[string]Align{
	"flex-start": AlignStart,
	"flex-end":   AlignEnd,
}

// Decode parses a JSON style description. Keys are camelCase property
// names; missing properties keep their Default value.
func Decode(data []byte) (Style, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Style{}, errors.Serialization(errors.PhaseDecode, []string{"style"}, "style must be a JSON object", err)
	}

	s := Default()
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if err := decodeField(&s, key, raw[key]); err != nil {
			return Style{}, err
		}
	}
	return s, nil
}

// FromMap converts a generic host value, such as an exported script
// object, into a Style.
func FromMap(m map[string]any) (Style, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Style{}, errors.Serialization(errors.PhaseDecode, []string{"style"}, "style is not representable as JSON", err)
	}
	return Decode(data)
}

// Encode renders s in the format Decode accepts.
func Encode(s Style) ([]byte, error) {
	data, err := json.Marshal(ToMap(s))
	if err != nil {
		return nil, errors.Serialization(errors.PhaseEncode, []string{"style"}, "marshal style", err)
	}
	return data, nil
}

// ToMap returns the host representation of s: numbers for lengths and
// strings for percentages, auto, and enum values.
func ToMap(s Style) map[string]any {
	m := map[string]any{
		"display":        s.Display.String(),
		"flexDirection":  s.Direction.String(),
		"justifyContent": s.JustifyContent.String(),
		"alignItems":     s.AlignItems.String(),
		"flexGrow":       float64(s.FlexGrow),
		"flexShrink":     float64(s.FlexShrink),
		"flexBasis":      dimensionValue(s.FlexBasis),
		"size":           sizeValue(s.Size),
		"minSize":        sizeValue(s.MinSize),
		"maxSize":        sizeValue(s.MaxSize),
		"gap":            sizeValue(s.Gap),
		"margin":         rectValue(s.Margin),
		"padding":        rectValue(s.Padding),
		"border":         rectValue(s.Border),
	}
	if s.AlignSelf != nil {
		m["alignSelf"] = s.AlignSelf.String()
	} else {
		m["alignSelf"] = "auto"
	}
	if s.AspectRatio != nil {
		m["aspectRatio"] = float64(*s.AspectRatio)
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (s Style) MarshalJSON() ([]byte, error) {
	return Encode(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Style) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

func decodeField(s *Style, key string, msg json.RawMessage) error {
	path := []string{"style", key}
	switch key {
	case "display":
		return decodeEnum(msg, path, displayNames, nil, &s.Display)
	case "flexDirection":
		return decodeEnum(msg, path, directionNames, nil, &s.Direction)
	case "justifyContent":
		return decodeEnum(msg, path, justifyNames, justifyAliases, &s.JustifyContent)
	case "alignItems":
		return decodeEnum(msg, path, alignNames, alignAliases, &s.AlignItems)
	case "alignSelf":
		var name *string
		if err := json.Unmarshal(msg, &name); err != nil {
			return errors.Serialization(errors.PhaseDecode, path, "expected a string", err)
		}
		if name == nil || *name == "auto" {
			s.AlignSelf = nil
			return nil
		}
		var a Align
		if err := decodeEnum(msg, path, alignNames, alignAliases, &a); err != nil {
			return err
		}
		s.AlignSelf = &a
		return nil
	case "flexGrow":
		return decodeNonNegative(msg, path, &s.FlexGrow)
	case "flexShrink":
		return decodeNonNegative(msg, path, &s.FlexShrink)
	case "flexBasis":
		d, err := decodeDimension(msg, path, true)
		if err != nil {
			return err
		}
		s.FlexBasis = d
		return nil
	case "size":
		return decodeSize(msg, path, true, &s.Size)
	case "minSize":
		return decodeSize(msg, path, true, &s.MinSize)
	case "maxSize":
		return decodeSize(msg, path, true, &s.MaxSize)
	case "gap":
		return decodeSize(msg, path, false, &s.Gap)
	case "margin":
		return decodeRect(msg, path, true, &s.Margin)
	case "padding":
		return decodeRect(msg, path, false, &s.Padding)
	case "border":
		return decodeRect(msg, path, false, &s.Border)
	case "aspectRatio":
		var v *float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return errors.Serialization(errors.PhaseDecode, path, "expected a number", err)
		}
		if v == nil {
			s.AspectRatio = nil
			return nil
		}
		if *v <= 0 || math.IsInf(*v, 0) {
			return errors.Serialization(errors.PhaseDecode, path, "aspect ratio must be positive", nil)
		}
		r := float32(*v)
		s.AspectRatio = &r
		return nil
	default:
		return errors.Serialization(errors.PhaseDecode, path, "unknown style property", nil)
	}
}

func decodeEnum[T ~uint8](msg json.RawMessage, path, names []string, aliases map[string]T, dst *T) error {
	var name string
	if err := json.Unmarshal(msg, &name); err != nil {
		return errors.Serialization(errors.PhaseDecode, path, "expected a string", err)
	}
	if i := slices.Index(names, name); i >= 0 {
		*dst = T(i)
		return nil
	}
	if v, ok := aliases[name]; ok {
		*dst = v
		return nil
	}
	return errors.Serialization(errors.PhaseDecode, path,
		fmt.Sprintf("unknown value %q (want one of %s)", name, strings.Join(names, ", ")), nil)
}

func decodeNonNegative(msg json.RawMessage, path []string, dst *float32) error {
	var v float64
	if err := json.Unmarshal(msg, &v); err != nil {
		return errors.Serialization(errors.PhaseDecode, path, "expected a number", err)
	}
	if v < 0 {
		return errors.Serialization(errors.PhaseDecode, path, "must not be negative", nil)
	}
	*dst = float32(v)
	return nil
}

func decodeDimension(msg json.RawMessage, path []string, allowAuto bool) (Dimension, error) {
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return Dimension{}, errors.Serialization(errors.PhaseDecode, path, "expected a number or string", err)
	}
	d, err := ParseDimension(v, allowAuto)
	if err != nil {
		err.Path = path
		return Dimension{}, err
	}
	return d, nil
}

func decodeSize(msg json.RawMessage, path []string, allowAuto bool, dst *Size[Dimension]) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(msg, &raw); err != nil {
		return errors.Serialization(errors.PhaseDecode, path, "expected an object with width and height", err)
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		sub := append(slices.Clone(path), key)
		d, err := decodeDimension(raw[key], sub, allowAuto)
		if err != nil {
			return err
		}
		switch key {
		case "width":
			dst.Width = d
		case "height":
			dst.Height = d
		default:
			return errors.Serialization(errors.PhaseDecode, sub, "unknown size field", nil)
		}
	}
	return nil
}

func decodeRect(msg json.RawMessage, path []string, allowAuto bool, dst *Rect[Dimension]) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(msg, &raw); err != nil {
		// A bare value applies to every edge.
		d, derr := decodeDimension(msg, path, allowAuto)
		if derr != nil {
			return derr
		}
		*dst = Uniform(d)
		return nil
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		sub := append(slices.Clone(path), key)
		d, err := decodeDimension(raw[key], sub, allowAuto)
		if err != nil {
			return err
		}
		switch key {
		case "left":
			dst.Left = d
		case "right":
			dst.Right = d
		case "top":
			dst.Top = d
		case "bottom":
			dst.Bottom = d
		default:
			return errors.Serialization(errors.PhaseDecode, sub, "unknown edge", nil)
		}
	}
	return nil
}

// ParseDimension converts a host value: a number of pixels, "N%", or
// "auto" when allowAuto is set.
func ParseDimension(v any, allowAuto bool) (Dimension, *errors.Error) {
	if f, ok := toFloat(v); ok {
		if !Finite(float32(f)) {
			return Dimension{}, errors.Serialization(errors.PhaseDecode, nil, "length must be finite", nil)
		}
		return Length(float32(f)), nil
	}
	s, ok := v.(string)
	if !ok {
		return Dimension{}, errors.Serialization(errors.PhaseDecode, nil, fmt.Sprintf("unsupported dimension value of type %T", v), nil)
	}
	s = strings.TrimSpace(s)
	if s == "auto" {
		if !allowAuto {
			return Dimension{}, errors.Serialization(errors.PhaseDecode, nil, "auto is not allowed here", nil)
		}
		return Auto(), nil
	}
	if num, found := strings.CutSuffix(s, "%"); found {
		p, err := strconv.ParseFloat(strings.TrimSpace(num), 32)
		if err != nil {
			return Dimension{}, errors.Serialization(errors.PhaseDecode, nil, fmt.Sprintf("invalid percentage %q", s), err)
		}
		return Percent(float32(p)), nil
	}
	return Dimension{}, errors.Serialization(errors.PhaseDecode, nil, fmt.Sprintf("invalid dimension %q (want a number, \"N%%\" or \"auto\")", s), nil)
}

// ParseAvailableSpace converts a host value: a number of pixels,
// "min-content" or "max-content" (camelCase spellings accepted).
func ParseAvailableSpace(v any) (AvailableSpace, *errors.Error) {
	if f, ok := toFloat(v); ok {
		if !Finite(float32(f)) || f < 0 {
			return AvailableSpace{}, errors.Serialization(errors.PhaseDecode, nil, "available space must be a finite non-negative number", nil)
		}
		return Definite(float32(f)), nil
	}
	switch v {
	case "min-content", "minContent":
		return MinContent(), nil
	case "max-content", "maxContent":
		return MaxContent(), nil
	}
	return AvailableSpace{}, errors.Serialization(errors.PhaseDecode, nil,
		fmt.Sprintf("invalid available space %v (want a number, \"min-content\" or \"max-content\")", v), nil)
}

// ParseAvailableSize converts a host {width, height} object.
func ParseAvailableSize(v any) (Size[AvailableSpace], error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Size[AvailableSpace]{}, errors.Serialization(errors.PhaseDecode, []string{"availableSpace"}, "expected an object with width and height", nil)
	}
	var out Size[AvailableSpace]
	for _, axis := range []string{"width", "height"} {
		raw, present := m[axis]
		if !present {
			return Size[AvailableSpace]{}, errors.Serialization(errors.PhaseDecode, []string{"availableSpace", axis}, "missing", nil)
		}
		a, err := ParseAvailableSpace(raw)
		if err != nil {
			err.Path = []string{"availableSpace", axis}
			return Size[AvailableSpace]{}, err
		}
		if axis == "width" {
			out.Width = a
		} else {
			out.Height = a
		}
	}
	return out, nil
}

// MarshalJSON implements json.Marshaler.
func (d Dimension) MarshalJSON() ([]byte, error) {
	return json.Marshal(dimensionValue(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	v, err := decodeDimension(data, []string{"dimension"}, true)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a AvailableSpace) MarshalJSON() ([]byte, error) {
	if a.Kind == SpaceDefinite {
		return json.Marshal(float64(a.Value))
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AvailableSpace) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Serialization(errors.PhaseDecode, []string{"availableSpace"}, "expected a number or string", err)
	}
	parsed, err := ParseAvailableSpace(v)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func dimensionValue(d Dimension) any {
	if d.Unit == UnitLength {
		return float64(d.Value)
	}
	return d.String()
}

func sizeValue(s Size[Dimension]) map[string]any {
	return map[string]any{"width": dimensionValue(s.Width), "height": dimensionValue(s.Height)}
}

func rectValue(r Rect[Dimension]) map[string]any {
	return map[string]any{
		"left":   dimensionValue(r.Left),
		"right":  dimensionValue(r.Right),
		"top":    dimensionValue(r.Top),
		"bottom": dimensionValue(r.Bottom),
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
