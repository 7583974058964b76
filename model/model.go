package model

// Point is a single pen sample in drawing space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen movement, points ordered by drawing time.
type Stroke []Point

// FeatureVector is a fixed-length numeric summary of a character's
// normalized shape. Its layout is defined by the feature package and is
// versioned: vectors are only comparable when they share the same schema.
type FeatureVector []float64

// Character is a glyph identifier plus its ordered strokes and the
// feature vector derived from them. Stroke order is meaningful and is
// preserved everywhere a Character travels.
type Character struct {
	ID       string        `json:"character"`
	Strokes  []Stroke      `json:"strokes"`
	Features FeatureVector `json:"features,omitempty"`
}

// MatchResult is one ranked candidate. Distance is the raw metric value
// (smaller is better); Confidence is relative to the best candidate of
// the same query, with the best scoring 1.0.
type MatchResult struct {
	ID         string  `json:"character"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// MatchRequest is the query shape accepted over the wire: the raw strokes
// as drawn, outermost slice in stroke order.
type MatchRequest struct {
	Strokes [][]Point `json:"strokes"`
	TopN    int       `json:"top_n,omitempty"`
}

// MatchResponse carries the ranked candidate list, most similar first.
type MatchResponse struct {
	Results []MatchResult `json:"results"`
}
