package relay

import (
	"time"

	"github.com/oy3o/syncwire"
	"github.com/oy3o/syncwire/pose"
)

// Handler receives decoded messages. Calls happen on the goroutine that
// called Receive or PropertyUpdated.
type Handler interface {
	OnTransform(sender string, t syncwire.Transform)
	OnAppMessage(sender string, m syncwire.AppMessage)
	OnPose(sender string, p pose.HandPose)
	OnCommand(sender string, v syncwire.Value)
	OnSpawnParameter(sender string, v syncwire.Value)
	// OnLatency reports the round trip of a ping. Responses that match no
	// outstanding ping report MaxLatency.
	OnLatency(sender string, d time.Duration)
	OnProperty(key syncwire.PropertyKey, v syncwire.Value)
}

// NopHandler ignores everything. Embed it to handle a subset of events.
type NopHandler struct{}

func (NopHandler) OnTransform(string, syncwire.Transform)          {}
func (NopHandler) OnAppMessage(string, syncwire.AppMessage)        {}
func (NopHandler) OnPose(string, pose.HandPose)                    {}
func (NopHandler) OnCommand(string, syncwire.Value)                {}
func (NopHandler) OnSpawnParameter(string, syncwire.Value)         {}
func (NopHandler) OnLatency(string, time.Duration)                 {}
func (NopHandler) OnProperty(syncwire.PropertyKey, syncwire.Value) {}
