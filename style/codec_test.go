package style

import (
	"encoding/json"
	"testing"

	"github.com/wippyai/layout-bridge/errors"
)

func TestDecode(t *testing.T) {
	s, err := Decode([]byte(`{
		"flexDirection": "column",
		"justifyContent": "flex-end",
		"alignItems": "center",
		"alignSelf": "stretch",
		"flexGrow": 2,
		"flexBasis": "25%",
		"size": {"width": 300, "height": "auto"},
		"margin": {"left": "auto", "top": 4},
		"padding": 2,
		"gap": {"width": 8},
		"aspectRatio": 1.5
	}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if s.Direction != Column {
		t.Errorf("Direction = %v", s.Direction)
	}
	if s.JustifyContent != JustifyEnd {
		t.Errorf("JustifyContent = %v", s.JustifyContent)
	}
	if s.AlignItems != AlignCenter {
		t.Errorf("AlignItems = %v", s.AlignItems)
	}
	if s.AlignSelf == nil || *s.AlignSelf != AlignStretch {
		t.Errorf("AlignSelf = %v", s.AlignSelf)
	}
	if s.FlexGrow != 2 || s.FlexShrink != 1 {
		t.Errorf("FlexGrow/FlexShrink = %v/%v", s.FlexGrow, s.FlexShrink)
	}
	if s.FlexBasis != Percent(25) {
		t.Errorf("FlexBasis = %v", s.FlexBasis)
	}
	if s.Size.Width != Length(300) || !s.Size.Height.IsAuto() {
		t.Errorf("Size = %v", s.Size)
	}
	if !s.Margin.Left.IsAuto() || s.Margin.Top != Length(4) || s.Margin.Right != Zero() {
		t.Errorf("Margin = %v", s.Margin)
	}
	if s.Padding != Uniform(Length(2)) {
		t.Errorf("Padding = %v", s.Padding)
	}
	if s.Gap.Width != Length(8) || s.Gap.Height != Zero() {
		t.Errorf("Gap = %v", s.Gap)
	}
	if s.AspectRatio == nil || *s.AspectRatio != 1.5 {
		t.Errorf("AspectRatio = %v", s.AspectRatio)
	}
}

func TestDecode_EmptyIsDefault(t *testing.T) {
	for _, input := range []string{`{}`, `null`} {
		s, err := Decode([]byte(input))
		if err != nil {
			t.Fatalf("Decode(%s): %v", input, err)
		}
		if s != Default() {
			t.Errorf("Decode(%s) = %+v, want Default()", input, s)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		path  string
	}{
		{"not an object", `[1, 2]`, "style"},
		{"unknown property", `{"colour": "red"}`, "style.colour"},
		{"unknown enum", `{"flexDirection": "diagonal"}`, "style.flexDirection"},
		{"enum wrong type", `{"alignItems": 3}`, "style.alignItems"},
		{"negative grow", `{"flexGrow": -1}`, "style.flexGrow"},
		{"bad percentage", `{"size": {"width": "abc%"}}`, "style.size.width"},
		{"bad unit", `{"size": {"height": "12em"}}`, "style.size.height"},
		{"unknown size field", `{"minSize": {"depth": 3}}`, "style.minSize.depth"},
		{"auto padding", `{"padding": {"left": "auto"}}`, "style.padding.left"},
		{"auto gap", `{"gap": {"width": "auto"}}`, "style.gap.width"},
		{"unknown edge", `{"border": {"start": 1}}`, "style.border.start"},
		{"zero aspect ratio", `{"aspectRatio": 0}`, "style.aspectRatio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error type = %T, want *errors.Error", err)
			}
			if e.Kind != errors.KindSerialization {
				t.Errorf("Kind = %q, want %q", e.Kind, errors.KindSerialization)
			}
			if got := joinPath(e.Path); got != tt.path {
				t.Errorf("Path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	align := AlignEnd
	ratio := float32(2)
	in := Default().WithSize(120, 40)
	in.Direction = RowReverse
	in.JustifyContent = JustifySpaceEvenly
	in.AlignSelf = &align
	in.AspectRatio = &ratio
	in.Margin = Rect[Dimension]{Left: Auto(), Right: Percent(10), Top: Zero(), Bottom: Length(3)}
	in.MaxSize.Width = Percent(50)

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode(%s): %v", data, err)
	}

	if out.Direction != in.Direction || out.JustifyContent != in.JustifyContent {
		t.Errorf("enums differ: %+v vs %+v", out, in)
	}
	if out.AlignSelf == nil || *out.AlignSelf != align {
		t.Errorf("AlignSelf = %v", out.AlignSelf)
	}
	if out.AspectRatio == nil || *out.AspectRatio != ratio {
		t.Errorf("AspectRatio = %v", out.AspectRatio)
	}
	if out.Margin != in.Margin || out.Size != in.Size || out.MaxSize != in.MaxSize {
		t.Errorf("geometry differs:\n got %+v\nwant %+v", out, in)
	}
}

func TestStyle_JSONField(t *testing.T) {
	var node struct {
		Style Style `json:"style"`
	}
	if err := json.Unmarshal([]byte(`{"style": {"flexGrow": 1}}`), &node); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if node.Style.FlexGrow != 1 || node.Style.AlignItems != AlignStretch {
		t.Errorf("Style = %+v", node.Style)
	}

	err := json.Unmarshal([]byte(`{"style": {"display": "grid"}}`), &node)
	if errors.KindOf(err) != errors.KindSerialization {
		t.Errorf("KindOf(%v) = %q", err, errors.KindOf(err))
	}
}

func TestFromMap(t *testing.T) {
	s, err := FromMap(map[string]any{
		"size":     map[string]any{"width": int64(100), "height": 50.0},
		"flexGrow": 1,
	})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if s.Size.Width != Length(100) || s.Size.Height != Length(50) || s.FlexGrow != 1 {
		t.Errorf("FromMap = %+v", s)
	}
}

func TestParseAvailableSpace(t *testing.T) {
	tests := []struct {
		in      any
		want    AvailableSpace
		wantErr bool
	}{
		{in: 300.0, want: Definite(300)},
		{in: int64(20), want: Definite(20)},
		{in: "min-content", want: MinContent()},
		{in: "minContent", want: MinContent()},
		{in: "max-content", want: MaxContent()},
		{in: "maxContent", want: MaxContent()},
		{in: -1.0, wantErr: true},
		{in: "fit-content", wantErr: true},
		{in: true, wantErr: true},
		{in: nil, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseAvailableSpace(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAvailableSpace(%v) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAvailableSpace(%v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAvailableSpace(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAvailableSize(t *testing.T) {
	got, err := ParseAvailableSize(map[string]any{"width": 300.0, "height": "max-content"})
	if err != nil {
		t.Fatalf("ParseAvailableSize: %v", err)
	}
	if got.Width != Definite(300) || got.Height != MaxContent() {
		t.Errorf("ParseAvailableSize = %v", got)
	}

	_, err = ParseAvailableSize(map[string]any{"width": 300.0, "height": "huge"})
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindSerialization || joinPath(e.Path) != "availableSpace.height" {
		t.Errorf("error = %v, want serialization at availableSpace.height", err)
	}

	_, err = ParseAvailableSize(map[string]any{"width": 300.0})
	if errors.KindOf(err) != errors.KindSerialization {
		t.Errorf("missing axis: KindOf = %q", errors.KindOf(err))
	}

	_, err = ParseAvailableSize("300x200")
	if errors.KindOf(err) != errors.KindSerialization {
		t.Errorf("non-object: KindOf = %q", errors.KindOf(err))
	}
}

func TestAvailableSpace_JSON(t *testing.T) {
	var size struct {
		Width  AvailableSpace `json:"width"`
		Height AvailableSpace `json:"height"`
	}
	if err := json.Unmarshal([]byte(`{"width": 80, "height": "min-content"}`), &size); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if size.Width != Definite(80) || size.Height != MinContent() {
		t.Errorf("got %v x %v", size.Width, size.Height)
	}

	data, err := json.Marshal(size)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"width":80,"height":"min-content"}` {
		t.Errorf("Marshal = %s", data)
	}
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
