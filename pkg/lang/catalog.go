package lang

import (
	"github.com/yasarefe-official/igxdown/pkg/errors"
)

// Message keys used across the bot surface
const (
	KeyStart          = "start"
	KeyHelp           = "help"
	KeyProgress       = "progress"
	KeyTooFast        = "too_fast"
	KeyChooseLanguage = "choose_language"
	KeyLanguageSet    = "language_set"
)

// catalog maps language code to key to translated text
var catalog = map[string]map[string]string{
	"en": {
		KeyStart:          "Hi! Send me an Instagram post, reel or IGTV link and I will fetch the video for you.",
		KeyHelp:           "Paste any Instagram video link into the chat. I will download it and send it back.\n\nCommands:\n/language - change the bot language",
		KeyProgress:       "⏳ Fetching your video...",
		KeyTooFast:        "Slow down a little, I am still busy with your last link.",
		KeyChooseLanguage: "Choose your language:",
		KeyLanguageSet:    "Language saved.",
	},
	"tr": {
		KeyStart:          "Merhaba! Bana bir Instagram gönderi, reel veya IGTV bağlantısı gönder, videoyu senin için getireyim.",
		KeyHelp:           "Herhangi bir Instagram video bağlantısını sohbete yapıştır. İndirip sana geri göndereceğim.\n\nKomutlar:\n/language - bot dilini değiştir",
		KeyProgress:       "⏳ Videon getiriliyor...",
		KeyTooFast:        "Biraz yavaşla, hâlâ son bağlantınla ilgileniyorum.",
		KeyChooseLanguage: "Dilini seç:",
		KeyLanguageSet:    "Dil kaydedildi.",
	},
}

// failures maps language code to failure kind to user-facing text
var failures = map[string]map[errors.Kind]string{
	"en": {
		errors.KindInvalidURL:     "That does not look like an Instagram video link. Send me a post, reel or IGTV URL.",
		errors.KindLoginRequired:  "Instagram wants a login for this post, and my session cannot open it right now.",
		errors.KindPrivateContent: "This post is private. I can only fetch videos from public accounts.",
		errors.KindUnsupported:    "I could not find a video behind that link. It may be a photo post or it was deleted.",
		errors.KindRateLimited:    "Instagram is throttling me right now. Please try again in a few minutes.",
		errors.KindTimeout:        "The download took too long and I gave up. Please try again.",
		errors.KindFileTooLarge:   "That video is bigger than 50 MB, which is more than I can send over Telegram.",
		errors.KindExhausted:      "None of my download methods worked for that link. Please try again later.",
		errors.KindUnknown:        "Something went wrong on my side. Please try again later.",
	},
	"tr": {
		errors.KindInvalidURL:     "Bu bir Instagram video bağlantısına benzemiyor. Bana bir gönderi, reel veya IGTV adresi gönder.",
		errors.KindLoginRequired:  "Instagram bu gönderi için giriş istiyor ve oturumum şu anda açamıyor.",
		errors.KindPrivateContent: "Bu gönderi gizli. Yalnızca herkese açık hesaplardan video getirebilirim.",
		errors.KindUnsupported:    "Bu bağlantının arkasında bir video bulamadım. Fotoğraf olabilir ya da silinmiş olabilir.",
		errors.KindRateLimited:    "Instagram beni şu anda yavaşlatıyor. Lütfen birkaç dakika sonra tekrar dene.",
		errors.KindTimeout:        "İndirme çok uzun sürdü ve vazgeçtim. Lütfen tekrar dene.",
		errors.KindFileTooLarge:   "Bu video 50 MB'tan büyük, Telegram üzerinden gönderebileceğimden fazla.",
		errors.KindExhausted:      "Hiçbir indirme yöntemim bu bağlantıda işe yaramadı. Lütfen daha sonra tekrar dene.",
		errors.KindUnknown:        "Benim tarafımda bir şeyler ters gitti. Lütfen daha sonra tekrar dene.",
	},
}

// Names lists the selectable languages for the /language keyboard
var Names = map[string]string{
	"en": "English",
	"tr": "Türkçe",
}

// Supported reports whether the catalog carries the language code
func Supported(code string) bool {
	_, ok := catalog[code]
	return ok
}

// T resolves a message key for a language, falling back to English
func T(code, key string) string {
	if msgs, ok := catalog[code]; ok {
		if text, ok := msgs[key]; ok {
			return text
		}
	}
	return catalog["en"][key]
}

// Localizer resolves user-facing strings through the per-user language
// store. It satisfies the workflow text surface.
type Localizer struct {
	store *Store
}

// NewLocalizer binds a catalog lookup to the preference store
func NewLocalizer(store *Store) *Localizer {
	return &Localizer{store: store}
}

// Get returns the user's language code
func (l *Localizer) Get(userID int64) string {
	return l.store.Get(userID)
}

// Text resolves any catalog key for the user
func (l *Localizer) Text(userID int64, key string) string {
	return T(l.store.Get(userID), key)
}

// Progress is the in-flight status message
func (l *Localizer) Progress(userID int64) string {
	return l.Text(userID, KeyProgress)
}

// TooFast is the rate-limit rejection message
func (l *Localizer) TooFast(userID int64) string {
	return l.Text(userID, KeyTooFast)
}

// Failure maps a classified failure to the user's language
func (l *Localizer) Failure(userID int64, kind errors.Kind) string {
	code := l.store.Get(userID)
	if msgs, ok := failures[code]; ok {
		if text, ok := msgs[kind]; ok {
			return text
		}
	}
	if text, ok := failures["en"][kind]; ok {
		return text
	}
	return failures["en"][errors.KindUnknown]
}
