package models

import "strings"

// DefaultFolderName is the name given to folders created without one
const DefaultFolderName = "Nouveau dossier"

// Folder groups entities. It does not own them: deleting a folder only
// detaches its members.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Collapsed bool   `json:"collapsed"`
	Visible   bool   `json:"visible"`
}

// NewFolder returns a visible, expanded folder
func NewFolder(name string) *Folder {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFolderName
	}
	return &Folder{
		ID:      NewID(),
		Name:    name,
		Visible: true,
	}
}
