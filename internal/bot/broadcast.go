package bot

import "errors"

// Broadcast composition is a small state machine: the admin writes the text,
// optionally attaches an image, reviews a preview and confirms. Each input
// is a transition; anything out of order is rejected.

type broadcastState int

const (
	broadcastIdle broadcastState = iota
	broadcastCollectingText
	broadcastCollectingImage
	broadcastPreviewing
)

var errBroadcastState = errors.New("unexpected input for broadcast state")

type broadcastSession struct {
	state   broadcastState
	text    string
	photoID string
}

func (s *broadcastSession) begin() {
	*s = broadcastSession{state: broadcastCollectingText}
}

func (s *broadcastSession) reset() {
	*s = broadcastSession{}
}

func (s *broadcastSession) active() bool {
	return s.state != broadcastIdle
}

// inputText accepts the broadcast body and moves on to the image step.
func (s *broadcastSession) inputText(text string) error {
	if s.state != broadcastCollectingText || text == "" {
		return errBroadcastState
	}
	s.text = text
	s.state = broadcastCollectingImage
	return nil
}

// inputPhoto attaches an image and moves to the preview step.
func (s *broadcastSession) inputPhoto(fileID string) error {
	if s.state != broadcastCollectingImage || fileID == "" {
		return errBroadcastState
	}
	s.photoID = fileID
	s.state = broadcastPreviewing
	return nil
}

// skipImage moves to the preview step with no image attached.
func (s *broadcastSession) skipImage() error {
	if s.state != broadcastCollectingImage {
		return errBroadcastState
	}
	s.photoID = ""
	s.state = broadcastPreviewing
	return nil
}

// confirm finalizes the session and hands back the composed message.
func (s *broadcastSession) confirm() (text, photoID string, err error) {
	if s.state != broadcastPreviewing {
		return "", "", errBroadcastState
	}
	text, photoID = s.text, s.photoID
	s.reset()
	return text, photoID, nil
}
