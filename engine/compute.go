package engine

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/layout-bridge/style"
)

var inf = float32(math.Inf(1))

// pass holds per-call state for one ComputeLayout.
type pass struct {
	f        *Flex
	measure  MeasureFunc
	visited  int
	measured int
}

// item holds intermediate flex state for a child.
// This is allocated per layout call, not stored on nodes.
type item struct {
	margin   style.Rect[float32]
	auto     style.Rect[bool]
	id       NodeID
	order    uint32
	basis    float32
	hypo     float32
	target   float32
	minMain  float32
	maxMain  float32
	pbMain   float32
	cross    float32
	minCross float32
	maxCross float32
	pbCross  float32
	mainPos  float32
	crossPos float32
	grow     float32
	shrink   float32
	autoMin  bool
	stretch  bool
	frozen   bool
}

// ComputeLayout lays out the subtree rooted at root under the given
// available space. A root with auto size fills definite available space
// and shrink-wraps its content under min-content or max-content.
func (f *Flex) ComputeLayout(root NodeID, available style.Size[style.AvailableSpace], measure MeasureFunc) error {
	n, err := f.get(root)
	if err != nil {
		return err
	}
	start := time.Now()
	c := &pass{f: f, measure: measure}

	s := n.style
	parent := style.Size[Known]{Width: knownOf(available.Width), Height: knownOf(available.Height)}
	margin := edges(s.Margin, parent.Width)

	known := style.Size[Known]{
		Width:  resolve(s.Size.Width, parent.Width),
		Height: resolve(s.Size.Height, parent.Height),
	}
	if !known.Width.Valid && s.AspectRatio == nil {
		if w, ok := available.Width.Px(); ok {
			known.Width = Some(max(0, w-margin.Left-margin.Right))
		}
	}
	if !known.Height.Valid && s.AspectRatio == nil {
		if h, ok := available.Height.Px(); ok {
			known.Height = Some(max(0, h-margin.Top-margin.Bottom))
		}
	}

	avail := style.Size[style.AvailableSpace]{
		Width:  shrinkSpace(available.Width, margin.Left+margin.Right),
		Height: shrinkSpace(available.Height, margin.Top+margin.Bottom),
	}
	c.layout(root, known, parent, avail, true)

	n = &f.nodes[root-1]
	n.unrounded.Order = 0
	n.unrounded.Location = Point{X: margin.Left, Y: margin.Top}
	n.unrounded.Margin = margin
	f.round(root, 0, 0)

	Logger().Debug("computed layout",
		zap.Uint64("root", uint64(root)),
		zap.Int("nodes", c.visited),
		zap.Int("measured", c.measured),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// layout sizes one node. known carries border-box sizes the parent has
// already decided; parent is the percentage basis. When perform is set
// the node and its subtree get their final Layout.
func (c *pass) layout(id NodeID, known, parent style.Size[Known], avail style.Size[style.AvailableSpace], perform bool) style.Size[float32] {
	return c.compute(id, known, parent, avail, perform, false)
}

// contentSize sizes a node from its content alone, ignoring its own
// preferred size.
func (c *pass) contentSize(id NodeID, parent style.Size[Known], avail style.Size[style.AvailableSpace]) style.Size[float32] {
	return c.compute(id, style.Size[Known]{}, parent, avail, false, true)
}

func (c *pass) compute(id NodeID, known, parent style.Size[Known], avail style.Size[style.AvailableSpace], perform, contentOnly bool) style.Size[float32] {
	n := &c.f.nodes[id-1]
	s := n.style
	if s.Display == style.DisplayNone {
		if perform {
			c.f.hide(id)
		}
		return style.Size[float32]{}
	}
	if perform {
		c.visited++
	}

	padding := edges(s.Padding, parent.Width)
	border := edges(s.Border, parent.Width)
	pb := style.Size[float32]{
		Width:  padding.Left + padding.Right + border.Left + border.Right,
		Height: padding.Top + padding.Bottom + border.Top + border.Bottom,
	}
	minSize := style.Size[float32]{
		Width:  s.MinSize.Width.ResolveOr(parent.Width.Value, parent.Width.Valid, 0),
		Height: s.MinSize.Height.ResolveOr(parent.Height.Value, parent.Height.Valid, 0),
	}
	maxSize := style.Size[float32]{
		Width:  s.MaxSize.Width.ResolveOr(parent.Width.Value, parent.Width.Valid, inf),
		Height: s.MaxSize.Height.ResolveOr(parent.Height.Value, parent.Height.Valid, inf),
	}

	if !known.Width.Valid && !contentOnly {
		known.Width = resolve(s.Size.Width, parent.Width)
	}
	if !known.Height.Valid && !contentOnly {
		known.Height = resolve(s.Size.Height, parent.Height)
	}
	if ar := s.AspectRatio; ar != nil && !contentOnly {
		if known.Width.Valid && !known.Height.Valid {
			known.Height = Some(known.Width.Value / *ar)
		} else if known.Height.Valid && !known.Width.Valid {
			known.Width = Some(known.Height.Value * *ar)
		}
	}
	if known.Width.Valid {
		known.Width.Value = clampSize(known.Width.Value, minSize.Width, maxSize.Width, pb.Width)
	}
	if known.Height.Valid {
		known.Height.Value = clampSize(known.Height.Value, minSize.Height, maxSize.Height, pb.Height)
	}

	var size, content style.Size[float32]
	if len(n.children) == 0 {
		size, content = c.leaf(id, known, avail, pb, minSize, maxSize)
	} else {
		size, content = c.container(id, known, avail, padding, border, minSize, maxSize, perform)
	}

	if perform {
		n = &c.f.nodes[id-1]
		n.unrounded.Size = size
		n.unrounded.ContentSize = content
		n.unrounded.Padding = padding
		n.unrounded.Border = border
		n.dirty = false
	}
	return size
}

func (c *pass) leaf(id NodeID, known style.Size[Known], avail style.Size[style.AvailableSpace], pb, minSize, maxSize style.Size[float32]) (style.Size[float32], style.Size[float32]) {
	if known.Width.Valid && known.Height.Valid {
		size := style.Size[float32]{Width: known.Width.Value, Height: known.Height.Value}
		return size, size
	}

	measured := pb
	if c.measure != nil {
		n := &c.f.nodes[id-1]
		snapshot := n.style.Clone()
		in := MeasureInput{
			Node:    id,
			Context: n.context,
			HasCtx:  n.hasCtx,
			Style:   &snapshot,
			Available: style.Size[style.AvailableSpace]{
				Width:  shrinkSpace(avail.Width, pb.Width),
				Height: shrinkSpace(avail.Height, pb.Height),
			},
		}
		if w, ok := known.Width.Get(); ok {
			in.Known.Width = Some(max(0, w-pb.Width))
			in.Available.Width = style.Definite(in.Known.Width.Value)
		}
		if h, ok := known.Height.Get(); ok {
			in.Known.Height = Some(max(0, h-pb.Height))
			in.Available.Height = style.Definite(in.Known.Height.Value)
		}

		m := c.measure(in)
		c.measured++
		debugf("measured node %d: %vx%v", id, m.Width, m.Height)
		measured.Width += sanitize(m.Width)
		measured.Height += sanitize(m.Height)
	}

	size := style.Size[float32]{
		Width:  clampSize(measured.Width, minSize.Width, maxSize.Width, pb.Width),
		Height: clampSize(measured.Height, minSize.Height, maxSize.Height, pb.Height),
	}
	if w, ok := known.Width.Get(); ok {
		size.Width = w
	}
	if h, ok := known.Height.Get(); ok {
		size.Height = h
	}
	return size, measured
}

func (c *pass) container(id NodeID, known style.Size[Known], avail style.Size[style.AvailableSpace], padding, border style.Rect[float32], minSize, maxSize style.Size[float32], perform bool) (style.Size[float32], style.Size[float32]) {
	f := c.f
	s := f.nodes[id-1].style
	children := f.nodes[id-1].children
	row := s.Direction.IsRow()
	reverse := s.Direction.IsReverse()

	pb := style.Size[float32]{
		Width:  padding.Left + padding.Right + border.Left + border.Right,
		Height: padding.Top + padding.Bottom + border.Top + border.Bottom,
	}
	inner := style.Size[Known]{Width: innerKnown(known.Width, pb.Width), Height: innerKnown(known.Height, pb.Height)}
	innerAvail := style.Size[style.AvailableSpace]{
		Width:  shrinkSpace(avail.Width, pb.Width),
		Height: shrinkSpace(avail.Height, pb.Height),
	}
	if w, ok := inner.Width.Get(); ok {
		innerAvail.Width = style.Definite(w)
	}
	if h, ok := inner.Height.Get(); ok {
		innerAvail.Height = style.Definite(h)
	}

	innerMain, innerCross := mainOf(row, inner), crossOf(row, inner)
	availCross := crossOf(row, innerAvail)
	gapDim := s.Gap.Height
	if row {
		gapDim = s.Gap.Width
	}
	gap := gapDim.ResolveOr(innerMain.Value, innerMain.Valid, 0)

	// Phase 1: flex base sizes and hypothetical main sizes.
	items := make([]item, 0, len(children))
	for order, cid := range children {
		cs := f.nodes[cid-1].style
		if cs.Display == style.DisplayNone {
			if perform {
				f.hide(cid)
			}
			continue
		}

		it := item{
			id:     cid,
			order:  uint32(order),
			margin: edges(cs.Margin, inner.Width),
			auto:   autoEdges(cs.Margin),
			grow:   cs.FlexGrow,
			shrink: cs.FlexShrink,
		}
		cpad := edges(cs.Padding, inner.Width)
		cborder := edges(cs.Border, inner.Width)
		it.pbMain = mainSum(row, cpad) + mainSum(row, cborder)
		it.pbCross = crossSum(row, cpad) + crossSum(row, cborder)

		minMainDim := mainOf(row, cs.MinSize)
		it.autoMin = minMainDim.IsAuto()
		it.minMain = minMainDim.ResolveOr(innerMain.Value, innerMain.Valid, 0)
		it.maxMain = mainOf(row, cs.MaxSize).ResolveOr(innerMain.Value, innerMain.Valid, inf)
		it.minCross = crossOf(row, cs.MinSize).ResolveOr(innerCross.Value, innerCross.Valid, 0)
		it.maxCross = crossOf(row, cs.MaxSize).ResolveOr(innerCross.Value, innerCross.Valid, inf)

		align := s.AlignItems
		if cs.AlignSelf != nil {
			align = *cs.AlignSelf
		}
		crossMargins := crossSum(row, it.margin)
		it.stretch = align == style.AlignStretch &&
			crossOf(row, cs.Size).IsAuto() &&
			!crossStartAuto(row, it.auto) && !crossEndAuto(row, it.auto)

		if b, ok := cs.FlexBasis.Resolve(innerMain.Value, innerMain.Valid); ok {
			it.basis = b
		} else if b, ok := mainOf(row, cs.Size).Resolve(innerMain.Value, innerMain.Valid); ok {
			it.basis = b
		} else if cv, ok := crossOf(row, cs.Size).Resolve(innerCross.Value, innerCross.Valid); ok && cs.AspectRatio != nil {
			it.basis = aspectMain(row, cv, *cs.AspectRatio)
		} else {
			var ck style.Size[Known]
			if it.stretch && innerCross.Valid {
				ck = fromAxes(row, Known{}, Some(max(0, innerCross.Value-crossMargins)))
			}
			sz := c.layout(cid, ck, inner, fromAxes(row, style.MaxContent(), shrinkSpace(availCross, crossMargins)), false)
			it.basis = mainOf(row, sz)
		}
		it.hypo = clampSize(it.basis, it.minMain, it.maxMain, it.pbMain)
		items = append(items, it)
	}

	gaps := gap * float32(max(0, len(items)-1))

	// Phase 2: container main size.
	var mainSize float32
	if v, ok := innerMain.Get(); ok {
		mainSize = v
	} else {
		for i := range items {
			mainSize += items[i].hypo + mainSum(row, items[i].margin)
		}
		mainSize += gaps
		pbMain := mainOf(row, pb)
		mainSize = clampSize(mainSize+pbMain, mainOf(row, minSize), mainOf(row, maxSize), pbMain) - pbMain
	}

	// Phase 3: resolve flexible lengths.
	c.resolveFlexible(items, mainSize-gaps, row, inner, availCross)

	// Phase 4: cross sizes.
	for i := range items {
		it := &items[i]
		cs := f.nodes[it.id-1].style
		crossMargins := crossSum(row, it.margin)
		if v, ok := crossOf(row, cs.Size).Resolve(innerCross.Value, innerCross.Valid); ok {
			it.cross = clampSize(v, it.minCross, it.maxCross, it.pbCross)
			continue
		}
		if cs.AspectRatio != nil {
			it.cross = clampSize(aspectCross(row, it.target, *cs.AspectRatio), it.minCross, it.maxCross, it.pbCross)
			continue
		}
		crossAvail := shrinkSpace(availCross, crossMargins)
		if v, ok := innerCross.Get(); ok {
			crossAvail = style.Definite(max(0, v-crossMargins))
		}
		sz := c.layout(it.id, fromAxes(row, Some(it.target), Known{}), inner,
			fromAxes(row, style.Definite(it.target), crossAvail), false)
		it.cross = crossOf(row, sz)
	}

	var lineCross float32
	if v, ok := innerCross.Get(); ok {
		lineCross = v
	} else {
		for i := range items {
			lineCross = max(lineCross, items[i].cross+crossSum(row, items[i].margin))
		}
		pbCross := crossOf(row, pb)
		lineCross = clampSize(lineCross+pbCross, crossOf(row, minSize), crossOf(row, maxSize), pbCross) - pbCross
	}
	for i := range items {
		if items[i].stretch {
			it := &items[i]
			it.cross = clampSize(lineCross-crossSum(row, it.margin), it.minCross, it.maxCross, it.pbCross)
		}
	}

	// Phase 5: main axis placement.
	used := gaps
	autoMargins := 0
	for i := range items {
		used += items[i].target + mainSum(row, items[i].margin)
		if mainStartAuto(row, items[i].auto) {
			autoMargins++
		}
		if mainEndAuto(row, items[i].auto) {
			autoMargins++
		}
	}
	free := mainSize - used
	var autoShare float32
	if free > 0 && autoMargins > 0 {
		autoShare = free / float32(autoMargins)
		free = 0
	}
	for i := range items {
		it := &items[i]
		if mainStartAuto(row, it.auto) {
			setMainStart(row, &it.margin, autoShare)
		}
		if mainEndAuto(row, it.auto) {
			setMainEnd(row, &it.margin, autoShare)
		}
	}

	pos := justifyOffset(s.JustifyContent, free, len(items))
	spacing := justifySpacing(s.JustifyContent, free, len(items))
	for i := range items {
		it := &items[i]
		lead, trail := flowMargins(row, reverse, it.margin)
		flowStart := pos + lead
		if reverse {
			it.mainPos = mainSize - flowStart - it.target
		} else {
			it.mainPos = flowStart
		}
		pos = flowStart + it.target + trail + gap + spacing
	}

	// Phase 6: cross axis placement.
	align := s.AlignItems
	for i := range items {
		it := &items[i]
		cs := f.nodes[it.id-1].style
		a := align
		if cs.AlignSelf != nil {
			a = *cs.AlignSelf
		}
		freeCross := lineCross - it.cross - crossSum(row, it.margin)
		startAuto, endAuto := crossStartAuto(row, it.auto), crossEndAuto(row, it.auto)
		var offset float32
		switch {
		case startAuto && endAuto:
			setCrossStart(row, &it.margin, max(0, freeCross)/2)
			setCrossEnd(row, &it.margin, max(0, freeCross)/2)
		case startAuto:
			setCrossStart(row, &it.margin, max(0, freeCross))
		case endAuto:
			setCrossEnd(row, &it.margin, max(0, freeCross))
		default:
			offset = alignOffset(a, freeCross)
		}
		it.crossPos = offset + crossStartMargin(row, it.margin)
	}

	size := style.Size[float32]{}
	innerSize := fromAxes(row, mainSize, lineCross)
	size.Width = innerSize.Width + pb.Width
	size.Height = innerSize.Height + pb.Height

	content := size
	if perform {
		origin := Point{X: padding.Left + border.Left, Y: padding.Top + border.Top}
		childParent := style.Size[Known]{Width: Some(innerSize.Width), Height: Some(innerSize.Height)}
		for i := range items {
			it := &items[i]
			sz := fromAxes(row, it.target, it.cross)
			at := fromAxes(row, it.mainPos, it.crossPos)
			c.layout(it.id, style.Size[Known]{Width: Some(sz.Width), Height: Some(sz.Height)}, childParent,
				style.Size[style.AvailableSpace]{Width: style.Definite(sz.Width), Height: style.Definite(sz.Height)}, true)

			cn := &f.nodes[it.id-1]
			cn.unrounded.Order = it.order
			cn.unrounded.Location = Point{X: origin.X + at.Width, Y: origin.Y + at.Height}
			cn.unrounded.Margin = it.margin

			content.Width = max(content.Width, cn.unrounded.Location.X+sz.Width+it.margin.Right+padding.Right)
			content.Height = max(content.Height, cn.unrounded.Location.Y+sz.Height+it.margin.Bottom+padding.Bottom)
		}
	}
	return size, content
}

// resolveFlexible distributes space among items following the CSS
// "resolve flexible lengths" loop for a single line.
func (c *pass) resolveFlexible(items []item, space float32, row bool, inner style.Size[Known], availCross style.AvailableSpace) {
	var outerHypo float32
	for i := range items {
		outerHypo += items[i].hypo + mainSum(row, items[i].margin)
	}
	growing := outerHypo < space

	if !growing {
		for i := range items {
			if items[i].autoMin && items[i].shrink > 0 {
				c.automaticMinimum(&items[i], row, inner, availCross)
			}
		}
	}

	for i := range items {
		it := &items[i]
		it.target = it.hypo
		factor := it.shrink
		if growing {
			factor = it.grow
		}
		it.frozen = factor == 0 || (growing && it.basis > it.hypo) || (!growing && it.basis < it.hypo)
	}

	initialFree := space
	for i := range items {
		initialFree -= mainSum(row, items[i].margin)
		if items[i].frozen {
			initialFree -= items[i].target
		} else {
			initialFree -= items[i].basis
		}
	}

	for iter := 0; iter <= len(items); iter++ {
		remaining := space
		var sumFactor, sumScaled float32
		unfrozen := 0
		for i := range items {
			it := &items[i]
			remaining -= mainSum(row, it.margin)
			if it.frozen {
				remaining -= it.target
				continue
			}
			unfrozen++
			remaining -= it.basis
			if growing {
				sumFactor += it.grow
			} else {
				sumFactor += it.shrink
				sumScaled += it.shrink * it.basis
			}
		}
		if unfrozen == 0 {
			break
		}
		if sumFactor < 1 {
			if scaled := initialFree * sumFactor; abs(scaled) < abs(remaining) {
				remaining = scaled
			}
		}

		for i := range items {
			it := &items[i]
			if it.frozen {
				continue
			}
			switch {
			case growing && sumFactor > 0:
				it.target = it.basis + remaining*it.grow/sumFactor
			case !growing && sumScaled > 0:
				it.target = it.basis + remaining*(it.shrink*it.basis)/sumScaled
			default:
				it.target = it.basis
			}
		}

		var total float32
		violations := make([]float32, len(items))
		for i := range items {
			it := &items[i]
			if it.frozen {
				continue
			}
			clamped := clampSize(it.target, it.minMain, it.maxMain, it.pbMain)
			violations[i] = clamped - it.target
			total += violations[i]
			it.target = clamped
		}

		for i := range items {
			it := &items[i]
			if it.frozen {
				continue
			}
			switch {
			case total == 0:
				it.frozen = true
			case total > 0 && violations[i] > 0:
				it.frozen = true
			case total < 0 && violations[i] < 0:
				it.frozen = true
			}
		}
	}
}

// automaticMinimum replaces an auto min-size with the content-based
// minimum, capped by a definite preferred size.
func (c *pass) automaticMinimum(it *item, row bool, inner style.Size[Known], availCross style.AvailableSpace) {
	cs := c.f.nodes[it.id-1].style
	sz := c.contentSize(it.id, inner,
		fromAxes(row, style.MinContent(), shrinkSpace(availCross, crossSum(row, it.margin))))
	minContent := mainOf(row, sz)
	if v, ok := mainOf(row, cs.Size).Resolve(mainOf(row, inner).Value, mainOf(row, inner).Valid); ok {
		minContent = min(minContent, v)
	}
	it.minMain = min(minContent, it.maxMain)
	it.hypo = clampSize(it.basis, it.minMain, it.maxMain, it.pbMain)
}

func (f *Flex) hide(id NodeID) {
	n := &f.nodes[id-1]
	n.layout = Layout{}
	n.unrounded = Layout{}
	n.dirty = false
	for _, c := range n.children {
		f.hide(c)
	}
}

func justifyOffset(justify style.Justify, free float32, count int) float32 {
	if free <= 0 || count == 0 {
		return 0
	}
	switch justify {
	case style.JustifyEnd:
		return free
	case style.JustifyCenter:
		return free / 2
	case style.JustifySpaceAround:
		return free / float32(count*2)
	case style.JustifySpaceEvenly:
		return free / float32(count+1)
	default:
		return 0
	}
}

func justifySpacing(justify style.Justify, free float32, count int) float32 {
	if free <= 0 || count == 0 {
		return 0
	}
	switch justify {
	case style.JustifySpaceBetween:
		if count == 1 {
			return 0
		}
		return free / float32(count-1)
	case style.JustifySpaceAround:
		return free / float32(count)
	case style.JustifySpaceEvenly:
		return free / float32(count+1)
	default:
		return 0
	}
}

func alignOffset(align style.Align, free float32) float32 {
	switch align {
	case style.AlignEnd:
		return free
	case style.AlignCenter:
		return free / 2
	default:
		return 0
	}
}
