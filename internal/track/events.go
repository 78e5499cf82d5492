package track

// SliceAdded is published when a draw slice enters the persisted draw list.
// Index is the slice's position in draw order at insertion time.
type SliceAdded struct {
	Segment SegmentID
	Index   int
	Entry   DrawEntry
}

// SliceRemoved is published when a draw slice leaves the persisted draw
// list. Index is the position the slice held when removed; listeners that
// mirror the list re-index from the smallest removed index.
type SliceRemoved struct {
	Segment SegmentID
	Index   int
}

// ElevationChanged is published after a joint's elevation is edited and its
// adjacent segments have been recomputed.
type ElevationChanged struct {
	Joint     JointID
	Elevation int
}
