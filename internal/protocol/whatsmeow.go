package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

// WhatsmeowFactory builds real WhatsApp sessions via whatsmeow. One sqlstore
// container is opened per credential path, so each account keeps its own
// device database.
type WhatsmeowFactory struct {
	log *slog.Logger
}

// NewWhatsmeowFactory creates the production session factory.
func NewWhatsmeowFactory(log *slog.Logger) *WhatsmeowFactory {
	return &WhatsmeowFactory{log: log.With("component", "protocol")}
}

// Open implements Factory.
func (f *WhatsmeowFactory) Open(ctx context.Context, credentialPath string, egress *url.URL, handler func(Event)) (Session, error) {
	dbLog := &slogAdapter{log: f.log.With("module", "whatsmeow-db")}
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", credentialPath), dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	clientLog := &slogAdapter{log: f.log.With("module", "whatsmeow")}
	client := whatsmeow.NewClient(deviceStore, clientLog)
	// The connection manager owns the reconnect policy.
	client.EnableAutoReconnect = false

	if egress != nil {
		if err := client.SetProxyAddress(egress.String()); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to bind proxy: %w", err)
		}
	}

	s := &whatsmeowSession{client: client, container: container, handler: handler}
	client.AddEventHandler(s.handleEvent)

	if err := client.Connect(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return s, nil
}

type whatsmeowSession struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	handler   func(Event)
}

func (s *whatsmeowSession) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.QR:
		// Only the first code is currently active; whatsmeow fires a new
		// QR event on rotation.
		if len(e.Codes) > 0 {
			s.handler(Event{Kind: EventScanCode, Code: e.Codes[0]})
		}

	case *events.Connected, *events.PairSuccess:
		phone := ""
		if s.client.Store.ID != nil {
			phone = s.client.Store.ID.User
		}
		s.handler(Event{Kind: EventSessionOpen, Phone: phone})

	case *events.LoggedOut:
		s.handler(Event{Kind: EventSessionClosed, Reason: "logged_out", Logout: true})

	case *events.TemporaryBan:
		s.handler(Event{Kind: EventSessionClosed, Reason: e.String(), Banned: true})

	case *events.StreamReplaced:
		s.handler(Event{Kind: EventSessionClosed, Reason: "stream_replaced"})

	case *events.Disconnected:
		s.handler(Event{Kind: EventSessionClosed, Reason: "connection_lost"})

	case *events.Message:
		if e.Info.IsFromMe {
			return
		}
		body := e.Message.GetConversation()
		if body == "" {
			body = e.Message.GetExtendedTextMessage().GetText()
		}
		hasMedia := e.Message.GetImageMessage() != nil ||
			e.Message.GetVideoMessage() != nil ||
			e.Message.GetStickerMessage() != nil ||
			e.Message.GetAudioMessage() != nil
		s.handler(Event{Kind: EventInbound, Message: &Inbound{
			From:      e.Info.Chat.String(),
			Body:      body,
			IsGroup:   e.Info.IsGroup,
			HasMedia:  hasMedia,
			Timestamp: e.Info.Timestamp,
		}})
	}
}

func (s *whatsmeowSession) SendText(ctx context.Context, contact, text string) error {
	jid, err := parseContact(contact)
	if err != nil {
		return err
	}
	_, err = s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (s *whatsmeowSession) SendMedia(ctx context.Context, contact string, data []byte, caption string, asSticker bool) error {
	jid, err := parseContact(contact)
	if err != nil {
		return err
	}

	uploaded, err := s.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("failed to upload media: %w", err)
	}

	mimeType := http.DetectContentType(data)
	var msg *waE2E.Message
	if asSticker {
		msg = &waE2E.Message{
			StickerMessage: &waE2E.StickerMessage{
				Mimetype:      proto.String(mimeType),
				URL:           proto.String(uploaded.URL),
				DirectPath:    proto.String(uploaded.DirectPath),
				MediaKey:      uploaded.MediaKey,
				FileEncSHA256: uploaded.FileEncSHA256,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    proto.Uint64(uint64(len(data))),
			},
		}
	} else {
		msg = &waE2E.Message{
			ImageMessage: &waE2E.ImageMessage{
				Caption:       proto.String(caption),
				Mimetype:      proto.String(mimeType),
				URL:           proto.String(uploaded.URL),
				DirectPath:    proto.String(uploaded.DirectPath),
				MediaKey:      uploaded.MediaKey,
				FileEncSHA256: uploaded.FileEncSHA256,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    proto.Uint64(uint64(len(data))),
			},
		}
	}

	if _, err := s.client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("failed to send media: %w", err)
	}
	return nil
}

func (s *whatsmeowSession) SendPresence(ctx context.Context, contact string, state PresenceState) error {
	jid, err := parseContact(contact)
	if err != nil {
		return err
	}
	chatState := types.ChatPresenceComposing
	if state == PresencePaused {
		chatState = types.ChatPresencePaused
	}
	return s.client.SendChatPresence(ctx, jid, chatState, types.ChatPresenceMediaText)
}

func (s *whatsmeowSession) SelfContact() string {
	if s.client.Store.ID == nil {
		return ""
	}
	return s.client.Store.ID.User
}

func (s *whatsmeowSession) End() {
	s.client.Disconnect()
	s.container.Close()
}

// parseContact accepts either a full JID or a bare phone number.
func parseContact(contact string) (types.JID, error) {
	if !strings.Contains(contact, "@") {
		contact += "@" + types.DefaultUserServer
	}
	jid, err := types.ParseJID(contact)
	if err != nil {
		return types.EmptyJID, fmt.Errorf("invalid contact %q: %w", contact, err)
	}
	return jid, nil
}

// slogAdapter adapts slog.Logger to whatsmeow's log interface.
type slogAdapter struct {
	log *slog.Logger
}

func (s *slogAdapter) Debugf(msg string, args ...interface{}) {
	s.log.Debug(fmt.Sprintf(msg, args...))
}

func (s *slogAdapter) Infof(msg string, args ...interface{}) {
	s.log.Info(fmt.Sprintf(msg, args...))
}

func (s *slogAdapter) Warnf(msg string, args ...interface{}) {
	s.log.Warn(fmt.Sprintf(msg, args...))
}

func (s *slogAdapter) Errorf(msg string, args ...interface{}) {
	s.log.Error(fmt.Sprintf(msg, args...))
}

func (s *slogAdapter) Sub(module string) waLog.Logger {
	return &slogAdapter{log: s.log.With("module", module)}
}

var _ waLog.Logger = (*slogAdapter)(nil)
