package collab

import (
	"context"
	"time"
)

// SaveManager is the save-game collaborator handle for the standalone
// runtime. Real persistence lives behind the frontend's own manager;
// this stub only answers the status contract.
type SaveManager struct {
	openedAt time.Time
}

// SaveStatus is the status payload exposed by the saves collaborator.
type SaveStatus struct {
	OpenedAt time.Time `json:"opened_at"`
}

func NewSaveManager() *SaveManager {
	return &SaveManager{openedAt: time.Now()}
}

func (m *SaveManager) Kind() string {
	return KindSaves
}

func (m *SaveManager) Status() (any, error) {
	return SaveStatus{OpenedAt: m.openedAt}, nil
}

// ProfileManager is the player-profile collaborator handle.
type ProfileManager struct {
	active  string
	created time.Time
}

// ProfileStatus is the status payload exposed by the profiles collaborator.
type ProfileStatus struct {
	ActiveProfile string    `json:"active_profile"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewProfileManager(active string) *ProfileManager {
	return &ProfileManager{active: active, created: time.Now()}
}

func (m *ProfileManager) Kind() string {
	return KindProfiles
}

func (m *ProfileManager) Status() (any, error) {
	return ProfileStatus{ActiveProfile: m.active, CreatedAt: m.created}, nil
}

// AudioBus is the optional audio collaborator handle. The standalone
// runtime carries no mixer; the stub only answers the status contract.
type AudioBus struct{}

func NewAudioBus() *AudioBus {
	return &AudioBus{}
}

func (b *AudioBus) Kind() string {
	return KindAudio
}

func (b *AudioBus) Status() (any, error) {
	return map[string]any{"muted": false}, nil
}

// StaticPrompter is a consent-prompt collaborator with a fixed answer,
// used by the standalone runtime and tests. Interactive frontends
// register their own prompter under the same kind.
type StaticPrompter struct {
	Accepted bool
	Err      error
}

func (p StaticPrompter) Kind() string {
	return KindConsentPrompt
}

func (p StaticPrompter) Status() (any, error) {
	return map[string]any{"accepted": p.Accepted}, nil
}

// Prompt reports the configured consent decision.
func (p StaticPrompter) Prompt(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.Err != nil {
		return false, p.Err
	}
	return p.Accepted, nil
}
