package story

// Sample returns the bundled demo story used to seed a fresh studio.
func Sample() Story {
	s := Empty(DefaultDefaults().Global)
	s.Variables["has_basket"] = BoolValue(true)
	s.Variables["met_wolf"] = BoolValue(false)

	add := func(seg Segment) {
		if seg.Branches == nil {
			seg.Branches = []Branch{}
		}
		s.Segments[seg.ID] = seg
		s.Order = append(s.Order, seg.ID)
	}
	add(Segment{
		ID:     "s1",
		Kind:   KindBeginning,
		Assets: Assets{Image: "https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=800&q=80"},
		Text:   "Little Red Riding Hood walked through the deep, dark woods. The trees whispered in the wind, but she wasn't afraid. She held her basket tightly.",
		Source: SourceMeta{Mood: "Mysterious", EstimatedDuration: "10s"},
	})
	add(Segment{
		ID:     "s2",
		Kind:   KindNarration,
		Assets: Assets{Image: "https://picsum.photos/seed/wolf/800/600"},
		Text:   "Suddenly, a shadow moved behind the great oak tree. A Wolf stepped out! 'Where are you going, little girl?' he asked in a low, gruff voice.",
		Source: SourceMeta{Mood: "Dark", EstimatedDuration: "12s"},
	})
	add(Segment{
		ID:     "s3",
		Kind:   KindChoice,
		Assets: Assets{Image: "https://images.unsplash.com/photo-1475924156734-496f6cac6ec1?w=800&q=80"},
		Text:   "She hesitated. Should she tell him about Grandma's house, or keep walking silently?",
		Source: SourceMeta{Mood: "Action", EstimatedDuration: "08s"},
	})
	return s
}

// SampleActiveID is the segment selected when the sample story is seeded.
const SampleActiveID = "s1"
