package core

import (
	"manga_bot/internal/announcer"
	"manga_bot/internal/model"
)

// Event is a message consumed by the dispatcher loop. Workers and
// command handlers communicate with the loop only through events.
type Event interface {
	isEvent()
}

// StartFetch asks for a fetch-all batch. Announce chains an
// announce-all run after the batch lands.
type StartFetch struct {
	Announce bool
}

// FetchDone reports a finished fetch-all batch.
type FetchDone struct {
	Err error
}

// StartAnnounce asks for an announce-all run.
type StartAnnounce struct{}

// AnnounceDone reports a finished announce-all run.
type AnnounceDone struct {
	Err error
}

// StartServerAnnounce asks for an announce run for a single server.
type StartServerAnnounce struct {
	Server model.Server
}

// ServerAnnounceDone reports a finished single-server announce run.
type ServerAnnounceDone struct {
	Identifier string
	Err        error
}

// StartBot asks for the delivery connection to be established.
type StartBot struct{}

// BotReady reports a live delivery connection.
type BotReady struct {
	Delivery announcer.Sender
}

// BotStopped reports that the delivery connection ended.
type BotStopped struct {
	Err error
}

// Quit shuts the dispatcher down.
type Quit struct{}

func (StartFetch) isEvent()          {}
func (FetchDone) isEvent()           {}
func (StartAnnounce) isEvent()       {}
func (AnnounceDone) isEvent()        {}
func (StartServerAnnounce) isEvent() {}
func (ServerAnnounceDone) isEvent()  {}
func (StartBot) isEvent()            {}
func (BotReady) isEvent()            {}
func (BotStopped) isEvent()          {}
func (Quit) isEvent()                {}
