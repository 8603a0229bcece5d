package subsonic

import (
	"fmt"

	"github.com/navisync/navisync/internal/models"
)

// envelope is the outer wrapper every Subsonic endpoint returns.
type envelope struct {
	Response payload `json:"subsonic-response"`
}

// payload is the union of response bodies for the endpoints this client calls.
type payload struct {
	Status        string             `json:"status"`
	Version       string             `json:"version,omitempty"`
	Error         *apiError          `json:"error,omitempty"`
	ScanStatus    *models.ScanStatus `json:"scanStatus,omitempty"`
	AlbumList     *albumList         `json:"albumList,omitempty"`
	AlbumList2    *albumList         `json:"albumList2,omitempty"`
	Album         *models.Album      `json:"album,omitempty"`
	MusicFolders  *musicFolders      `json:"musicFolders,omitempty"`
	History       *history           `json:"history,omitempty"`
	SearchResult3 *searchResult3     `json:"searchResult3,omitempty"`
	Genres        *genreList         `json:"genres,omitempty"`
	NowPlaying    *nowPlaying        `json:"nowPlaying,omitempty"`
}

// apiError is the in-band error object Subsonic returns with status "failed".
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// Subsonic error codes that indicate an authentication problem. These are
// fatal and never retried.
const (
	codeWrongCredentials = 40
	codeTokenUnsupported = 41
	codeNotAuthorized    = 50
)

func (e *apiError) authFailure() bool {
	switch e.Code {
	case codeWrongCredentials, codeTokenUnsupported, codeNotAuthorized:
		return true
	}
	return false
}

type albumList struct {
	Albums []models.Album `json:"album"`
}

type musicFolders struct {
	Folders []musicFolder `json:"musicFolder"`
}

type musicFolder struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

type history struct {
	Items []models.PlayEvent `json:"item"`
}

type searchResult3 struct {
	Albums []models.Album `json:"album"`
}

type genreList struct {
	Genres []models.Genre `json:"genre"`
}

type nowPlaying struct {
	Entries []models.PlayEvent `json:"entry"`
}
