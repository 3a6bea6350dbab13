// Package score implements the nanoparticle toxicity scoring model. It
// exposes [Engine.Validate], [Engine.Score] and [Engine.Evaluate], the
// severity [Bands] and the error kinds reported for rejected requests.
package score
