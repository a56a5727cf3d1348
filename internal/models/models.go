package models

// View is a snapshot of the image under the cursor, shared by the desktop
// and browser front-ends
type View struct {
	Filename string  `json:"filename"`
	PathEnd  string  `json:"path_end"`
	Path     string  `json:"path"`
	Status   string  `json:"status"`
	Info     string  `json:"info"`
	Ratio    float64 `json:"ratio"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`

	// Names of the configured patterns that match this image
	SourceMatches  []string `json:"source_matches,omitempty"`
	BadNameMatches []string `json:"bad_name_matches,omitempty"`
	BadPathMatches []string `json:"bad_path_matches,omitempty"`

	// Decoded neighbours that look like this image
	Similar []string `json:"similar,omitempty"`

	Index   int `json:"index"`
	Len     int `json:"len"`
	Kept    int `json:"kept"`
	Deleted int `json:"deleted"`
}

// ActionResponse is returned by every state-changing endpoint
type ActionResponse struct {
	View  *View  `json:"view,omitempty"`
	Error string `json:"error,omitempty"`
}
