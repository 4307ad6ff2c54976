package model

import "time"

// Payload carries the metadata stored alongside a vector point. It is an
// explicit struct rather than a free-form map so the index boundary stays
// typed.
type Payload struct {
	Date     time.Time
	Category string
	Amount   float64
}

// Point is one entry in the similarity index. Its ID equals the expense ID;
// upserting the same ID replaces the previous point (last-write-wins).
type Point struct {
	ID      string
	Payload Payload
	Vector  []float32
}

// Neighbor is a single k-NN query result.
type Neighbor struct {
	ID         string
	Payload    Payload
	Similarity float64
}
