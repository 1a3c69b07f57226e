package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jacob1911/pencil-app/internal/engine"
	"github.com/jacob1911/pencil-app/internal/geometry"
)

// frameInterval paces preview broadcasts: however fast samples arrive, at
// most one preview.state goes out per interval.
const frameInterval = 16 * time.Millisecond

const eventBuffer = 512

type eventKind int

const (
	evJoin eventKind = iota
	evLeave
	evMessage
	evPreviewFlush
)

type event struct {
	kind   eventKind
	client *Client
	msg    *Message
}

// Room is one live trace session: its clients plus the engine that owns the
// centerline. Every field below events/quit is touched only by the run
// goroutine, which is what lets the engine stay lock-free.
type Room struct {
	traceID string
	hub     *Hub

	events chan event
	quit   chan struct{}
	once   sync.Once

	eng     *engine.Engine
	clients map[string]*Client // clientID -> client
	seq     int64
	dirty   bool

	capturing *Client // client with the active stroke, nil when idle
	dragging  *Client // client with the active drag, nil when idle

	previewPending bool
}

func newRoom(hub *Hub, traceID string) *Room {
	return &Room{
		traceID: traceID,
		hub:     hub,
		events:  make(chan event, eventBuffer),
		quit:    make(chan struct{}),
		eng:     engine.NewEngine(),
		clients: make(map[string]*Client),
	}
}

// enqueue posts ev to the room goroutine. Events for a stopping room, or a
// hopelessly backlogged one, are dropped.
func (r *Room) enqueue(ev event) {
	select {
	case <-r.quit:
		return
	default:
	}
	select {
	case r.events <- ev:
	default:
		slog.Warn("room event buffer full, dropping event", "trace", r.traceID)
	}
}

func (r *Room) stop() {
	r.once.Do(func() { close(r.quit) })
}

func (r *Room) run() {
	defer r.hub.wg.Done()

	if doc, err := r.hub.loadDoc(r.traceID); err != nil {
		slog.Error("load trace document", "trace", r.traceID, "error", err)
	} else if doc != nil {
		r.eng.LoadDocument(doc)
	}

	for {
		select {
		case ev := <-r.events:
			r.handleEvent(ev)
		case <-r.quit:
			r.drain()
			r.shutdown()
			return
		}
	}
}

// drain runs the events queued before the stop signal, so trailing leaves
// still clean up.
func (r *Room) drain() {
	for {
		select {
		case ev := <-r.events:
			r.handleEvent(ev)
		default:
			return
		}
	}
}

func (r *Room) shutdown() {
	// A lone leftover point (possible right after an undo) is not a valid
	// persisted path, so skip the save rather than write it.
	if r.dirty && r.eng.PathLen() != 1 {
		if err := r.hub.saveDoc(r.traceID, r.eng.Document()); err != nil {
			slog.Error("save trace document on shutdown", "trace", r.traceID, "error", err)
		} else {
			r.dirty = false
		}
	}
	for _, c := range r.clients {
		close(c.send)
	}
	r.clients = nil
}

func (r *Room) handleEvent(ev event) {
	switch ev.kind {
	case evJoin:
		r.handleJoin(ev.client)
	case evLeave:
		r.handleLeave(ev.client)
	case evMessage:
		r.handleMessage(ev.client, ev.msg)
	case evPreviewFlush:
		r.flushPreview()
	}
}

func (r *Room) handleJoin(c *Client) {
	r.clients[c.ClientID] = c
	c.Send(&Message{
		Type:    TypeWelcome,
		TraceID: r.traceID,
		Seq:     r.nextSeq(),
		Payload: marshal(WelcomePayload{
			ClientID:    c.ClientID,
			UserID:      c.UserID,
			DisplayName: c.DisplayName,
			Doc:         r.eng.Document(),
		}),
	})
	r.broadcast(TypePeerJoin, c.UserID, PeerJoinPayload{UserID: c.UserID, DisplayName: c.DisplayName}, c.ClientID)
}

func (r *Room) handleLeave(c *Client) {
	if _, ok := r.clients[c.ClientID]; !ok {
		return
	}
	delete(r.clients, c.ClientID)

	// A client that vanishes mid-gesture gets the same treatment as a
	// pointer cancel.
	if r.capturing == c {
		r.eng.CancelStroke()
		r.capturing = nil
		r.broadcastPreview(nil)
	}
	if r.dragging == c {
		r.eng.EndDrag()
		r.dragging = nil
	}

	close(c.send)
	r.broadcast(TypePeerLeave, c.UserID, PeerLeavePayload{UserID: c.UserID}, "")
}

func (r *Room) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeImageSet:
		r.handleImageSet(sender, msg)
	case TypeStrokeBegin:
		r.handleStrokeBegin(sender, msg)
	case TypeStrokeSample:
		r.handleStrokeSample(sender, msg)
	case TypeStrokeEnd:
		r.handleStrokeEnd(sender)
	case TypeStrokeCancel:
		r.handleStrokeCancel(sender)
	case TypeDragBegin:
		r.handleDragBegin(sender, msg)
	case TypeDragMove:
		r.handleDragMove(sender, msg)
	case TypeDragEnd:
		r.handleDragEnd(sender)
	case TypePathUndo:
		if r.eng.UndoLast() {
			r.dirty = true
			r.broadcastPath()
		}
	case TypePathClear:
		if r.eng.Clear() {
			r.dirty = true
			r.broadcastPath()
		}
	case TypeConfigUpdate:
		r.handleConfigUpdate(sender, msg)
	case TypeDocSave:
		r.handleDocSave(sender)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (r *Room) handleImageSet(sender *Client, msg *Message) {
	var p ImageSetPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("invalid image payload", "error", err, "user", sender.UserID)
		return
	}
	if !r.eng.SetImage(p.ImageID, p.Width, p.Height) {
		r.sendError(sender, "invalid image dimensions")
		return
	}
	// Switching images reset the engine wholesale, so gesture owners and
	// ghost previews go with it.
	r.capturing = nil
	r.dragging = nil
	r.dirty = true
	r.broadcast(TypeImageSet, sender.UserID, p, sender.ClientID)
	r.broadcastPreview(nil)
	r.broadcastPath()
}

func (r *Room) handleStrokeBegin(sender *Client, msg *Message) {
	var p PointPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("invalid point payload", "error", err, "user", sender.UserID)
		return
	}
	if !r.eng.HasImage() {
		r.sendError(sender, "no image loaded")
		return
	}
	if !r.eng.BeginStroke(geometry.Point{X: p.X, Y: p.Y}) {
		r.sendError(sender, "another gesture is in progress")
		return
	}
	r.capturing = sender
	r.schedulePreview()
}

func (r *Room) handleStrokeSample(sender *Client, msg *Message) {
	if r.capturing != sender {
		return
	}
	var p PointPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("invalid point payload", "error", err, "user", sender.UserID)
		return
	}
	if r.eng.AddSample(geometry.Point{X: p.X, Y: p.Y}) {
		r.schedulePreview()
	}
}

func (r *Room) handleStrokeEnd(sender *Client) {
	if r.capturing != sender {
		return
	}
	changed := r.eng.EndStroke()
	r.capturing = nil
	r.broadcastPreview(nil)
	if changed {
		r.dirty = true
		r.broadcastPath()
	}
}

func (r *Room) handleStrokeCancel(sender *Client) {
	if r.capturing != sender {
		return
	}
	r.eng.CancelStroke()
	r.capturing = nil
	r.broadcastPreview(nil)
}

func (r *Room) handleDragBegin(sender *Client, msg *Message) {
	var p DragBeginPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("invalid drag payload", "error", err, "user", sender.UserID)
		return
	}
	if !r.eng.BeginDrag(p.Index) {
		r.sendError(sender, "cannot drag that point")
		return
	}
	r.dragging = sender
}

func (r *Room) handleDragMove(sender *Client, msg *Message) {
	if r.dragging != sender {
		return
	}
	var p PointPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("invalid point payload", "error", err, "user", sender.UserID)
		return
	}
	if r.eng.DragTo(geometry.Point{X: p.X, Y: p.Y}) {
		r.dirty = true
		r.broadcastPath()
	}
}

func (r *Room) handleDragEnd(sender *Client) {
	if r.dragging != sender {
		return
	}
	r.eng.EndDrag()
	r.dragging = nil
}

func (r *Room) handleConfigUpdate(sender *Client, msg *Message) {
	var patch engine.ParamsPatch
	if err := json.Unmarshal(msg.Payload, &patch); err != nil {
		slog.Warn("invalid config payload", "error", err, "user", sender.UserID)
		return
	}
	pathChanged := r.eng.ApplyParams(patch)
	r.dirty = true
	r.broadcastConfig()
	if pathChanged {
		r.broadcastPath()
	}
}

func (r *Room) handleDocSave(sender *Client) {
	if r.eng.PathLen() == 1 {
		r.sendError(sender, "path too short to save")
		return
	}
	if err := r.hub.saveDoc(r.traceID, r.eng.Document()); err != nil {
		slog.Error("save trace document", "trace", r.traceID, "error", err)
		r.sendError(sender, "save failed")
		return
	}
	r.dirty = false
	r.broadcast(TypeDocSaved, sender.UserID, nil, "")
}

// schedulePreview arms a single flush per frame interval. Samples landing
// before the flush ride along with it.
func (r *Room) schedulePreview() {
	if r.previewPending {
		return
	}
	r.previewPending = true
	time.AfterFunc(frameInterval, func() {
		r.enqueue(event{kind: evPreviewFlush})
	})
}

func (r *Room) flushPreview() {
	r.previewPending = false
	r.broadcastPreview(r.eng.Preview())
}

func (r *Room) broadcastPreview(pts []geometry.Point) {
	if pts == nil {
		pts = []geometry.Point{}
	}
	userID := ""
	if r.capturing != nil {
		userID = r.capturing.UserID
	}
	r.broadcast(TypePreviewState, userID, PreviewStatePayload{Points: pts}, "")
}

func (r *Room) broadcastPath() {
	r.broadcast(TypePathState, "", PathStatePayload{Points: r.eng.Path()}, "")
}

func (r *Room) broadcastConfig() {
	r.broadcast(TypeConfigState, "", ConfigStatePayload{Params: r.eng.Params()}, "")
}

func (r *Room) sendError(c *Client, text string) {
	c.Send(&Message{
		Type:    TypeError,
		TraceID: r.traceID,
		Payload: marshal(ErrorPayload{Message: text}),
	})
}

func (r *Room) nextSeq() int64 {
	r.seq++
	return r.seq
}

func (r *Room) broadcast(msgType, userID string, payload any, excludeClientID string) {
	msg := &Message{
		Type:    msgType,
		TraceID: r.traceID,
		UserID:  userID,
		Seq:     r.nextSeq(),
	}
	if payload != nil {
		msg.Payload = marshal(payload)
	}
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func marshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal payload", "error", err)
		return nil
	}
	return data
}
