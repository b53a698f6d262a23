package store

// Resolution is a journal row.
type Resolution struct {
	ID      string
	Session string
	Seq     int64

	Call     string
	Function string

	// Empty when the resolution failed.
	Winner            string
	Signature         string
	ReturnType        string
	UsedImplicitCasts bool
	HasEmptyVariadic  bool
	DefaultsMask      []byte
	Args              []string

	// Empty when the resolution succeeded.
	ErrorCode string
	Error     string

	CatalogGeneration int64
}

// Succeeded reports whether the call resolved.
func (r Resolution) Succeeded() bool {
	return r.Winner != ""
}

// Candidate is one overload tried for a resolution.
type Candidate struct {
	ResolutionID      string
	Ordinal           int
	Function          string
	Signature         string
	Matched           bool
	UsedImplicitCasts bool
}

// Filter narrows ListResolutions. Zero fields match everything.
type Filter struct {
	Session    string
	Function   string
	FailedOnly bool
	Limit      int
}
