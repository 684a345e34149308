package media

import (
	"strings"

	"github.com/mymmrac/telego"
)

// Kind tags the single media variant carried by a post.
type Kind int

const (
	KindNone Kind = iota
	KindPhoto
	KindVideo
	KindImageDocument
	KindVideoDocument
)

// Ref is the classified media reference of a post. A post resolves at most
// one of image or video; ThumbnailFileID is only set for videos that carry
// a preview image.
type Ref struct {
	Kind            Kind
	FileID          string
	ThumbnailFileID string
}

// IsImage reports whether the resolved file should fill the image field.
func (r Ref) IsImage() bool {
	return r.Kind == KindPhoto || r.Kind == KindImageDocument
}

// IsVideo reports whether the resolved file should fill the video field.
func (r Ref) IsVideo() bool {
	return r.Kind == KindVideo || r.Kind == KindVideoDocument
}

// Classify picks the post's media reference with the precedence
// photo > video > document with image MIME > document with video MIME.
func Classify(message *telego.Message) Ref {
	if len(message.Photo) > 0 {
		// Telegram lists photo sizes ascending; the last one is the largest.
		return Ref{Kind: KindPhoto, FileID: message.Photo[len(message.Photo)-1].FileID}
	}
	if message.Video != nil {
		ref := Ref{Kind: KindVideo, FileID: message.Video.FileID}
		if message.Video.Thumbnail != nil {
			ref.ThumbnailFileID = message.Video.Thumbnail.FileID
		}
		return ref
	}
	if doc := message.Document; doc != nil {
		switch {
		case strings.HasPrefix(doc.MimeType, "image"):
			return Ref{Kind: KindImageDocument, FileID: doc.FileID}
		case strings.HasPrefix(doc.MimeType, "video"):
			return Ref{Kind: KindVideoDocument, FileID: doc.FileID}
		}
	}
	return Ref{Kind: KindNone}
}
