package types

// Revision is an opaque commit identifier. Only equality is meaningful.
type Revision string

// IsZero reports whether the revision is unset
func (r Revision) IsZero() bool {
	return r == ""
}

// Short returns an abbreviated form for logs and messages
func (r Revision) Short() string {
	if len(r) > 8 {
		return string(r[:8])
	}
	return string(r)
}

func (r Revision) String() string {
	return string(r)
}
