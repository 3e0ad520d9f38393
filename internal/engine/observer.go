package engine

import "log/slog"

// Observer receives graph and message events as they happen.
//
// Observers are called synchronously from the scheduler and must not call
// back into the Network. Embed NopObserver to implement a subset.
type Observer interface {
	NodeAdded(n *Node)
	Connected(c Connection)
	Sent(m Message)
	Delivered(m Message)
	Failed(err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) NodeAdded(*Node)      {}
func (NopObserver) Connected(Connection) {}
func (NopObserver) Sent(Message)         {}
func (NopObserver) Delivered(Message)    {}
func (NopObserver) Failed(error)         {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) NodeAdded(n *Node) {
	for _, obs := range o {
		obs.NodeAdded(n)
	}
}

func (o Observers) Connected(c Connection) {
	for _, obs := range o {
		obs.Connected(c)
	}
}

func (o Observers) Sent(m Message) {
	for _, obs := range o {
		obs.Sent(m)
	}
}

func (o Observers) Delivered(m Message) {
	for _, obs := range o {
		obs.Delivered(m)
	}
}

func (o Observers) Failed(err error) {
	for _, obs := range o {
		obs.Failed(err)
	}
}

// LogObserver writes every event to a logger at debug level. It is the
// host-side counterpart of a serial debug monitor on the device.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

func (l *LogObserver) NodeAdded(n *Node) {
	l.Logger.Debug("node added", "node", n.ID(), "component", n.Component())
}

func (l *LogObserver) Connected(c Connection) {
	l.Logger.Debug("nodes connected", "src", c.Src.String(), "dst", c.Dst.String())
}

func (l *LogObserver) Sent(m Message) {
	l.Logger.Debug("packet sent",
		"seq", m.Seq,
		"src", m.Src.String(),
		"dst", m.Dst.String(),
		"packet", m.Packet.String(),
		"initial", m.Initial,
	)
}

func (l *LogObserver) Delivered(m Message) {
	l.Logger.Debug("packet delivered",
		"seq", m.Seq,
		"dst", m.Dst.String(),
		"packet", m.Packet.String(),
	)
}

func (l *LogObserver) Failed(err error) {
	l.Logger.Debug("processing failed", "error", err)
}
