package story

// Patch is a partial segment update. Nil fields are left untouched. There is
// no id field: segment ids are write-once.
type Patch struct {
	Kind   *Kind
	Text   *string
	Assets *AssetsPatch
	Source *SourcePatch
	// Branches replaces the whole edge list when non-nil.
	Branches *[]Branch
}

// AssetsPatch updates individual asset references. An empty string clears
// the optional audio and subtitle references.
type AssetsPatch struct {
	Audio     *string
	Image     *string
	Subtitles *string
}

// SourcePatch updates individual source metadata fields.
type SourcePatch struct {
	Mood              *string
	ImagePrompt       *string
	EstimatedDuration *string
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}

func applyPatch(seg Segment, p Patch) Segment {
	if p.Kind != nil {
		seg.Kind = *p.Kind
	}
	if p.Text != nil {
		seg.Text = *p.Text
	}
	seg.Assets = mergeAssets(seg.Assets, p.Assets)
	seg.Source = mergeSource(seg.Source, p.Source)
	if p.Branches != nil {
		seg.Branches = append([]Branch{}, (*p.Branches)...)
	}
	return seg
}

func mergeAssets(dst Assets, p *AssetsPatch) Assets {
	if p == nil {
		return dst
	}
	if p.Audio != nil {
		dst.Audio = *p.Audio
	}
	if p.Image != nil {
		dst.Image = *p.Image
	}
	if p.Subtitles != nil {
		dst.Subtitles = *p.Subtitles
	}
	return dst
}

func mergeSource(dst SourceMeta, p *SourcePatch) SourceMeta {
	if p == nil {
		return dst
	}
	if p.Mood != nil {
		dst.Mood = *p.Mood
	}
	if p.ImagePrompt != nil {
		dst.ImagePrompt = *p.ImagePrompt
	}
	if p.EstimatedDuration != nil {
		dst.EstimatedDuration = *p.EstimatedDuration
	}
	return dst
}
