package pipeline

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a plain function into a ProgressSink.
type FuncSink func(Event)

func (s FuncSink) OnEvent(evt Event) {
	if s == nil {
		return
	}
	s(evt)
}
