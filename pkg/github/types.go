package github

// PerPage is the page size used for every paginated listing
const PerPage = 100

// NewRelease is the payload of a create-release call. Releases are always
// created as drafts.
type NewRelease struct {
	Name    string `json:"name"`
	TagName string `json:"tag_name"`
	Body    string `json:"body"`
}
