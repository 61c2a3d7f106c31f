package localization

import (
	"context"
	"embed"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var builtinMessages embed.FS

type contextKey string

func (c contextKey) String() string {
	return "userlocale/localization/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

// LanguageProvider hands out an ordered list of language preferences.
type LanguageProvider interface {
	LanguagePreferences() []string
}

type Manager interface {
	Bundle() *i18n.Bundle
	Languages() []language.Tag
	Translate(ctx context.Context, request any, messageID string) string
	TranslateWithMap(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
	) string
	TranslateWithMapAndCount(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
		count int,
	) string
}

type managerImpl struct {
	bundle *i18n.Bundle
}

// NewManager loads messages.<lang>.toml for each language from translationsFolder.
// An empty folder loads the messages shipped with this package.
func NewManager(translationsFolder string, languages ...string) (Manager, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range languages {
		fileName := fmt.Sprintf("messages.%v.toml", lang)

		var err error
		if translationsFolder == "" {
			_, err = bundle.LoadMessageFileFS(builtinMessages, path.Join("messages", fileName))
		} else {
			_, err = bundle.LoadMessageFile(filepath.Join(translationsFolder, fileName))
		}
		if err != nil {
			return nil, fmt.Errorf("localization: could not load %s: %w", fileName, err)
		}
	}

	return &managerImpl{bundle: bundle}, nil
}

// Bundle Access the translation bundle instantiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

// Languages lists the languages that have messages loaded.
func (s *managerImpl) Languages() []language.Tag {
	return s.bundle.LanguageTags()
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	return s.TranslateWithMap(ctx, request, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
// No plural form is selected, so the message's "other" form is used.
func (s *managerImpl) TranslateWithMap(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
) string {
	return s.localize(ctx, request, messageID, variables, nil)
}

// TranslateWithMapAndCount performs a translation with variables based on the supplied message id and can pluralize.
func (s *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count int,
) string {
	return s.localize(ctx, request, messageID, variables, count)
}

func (s *managerImpl) localize(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	pluralCount any,
) string {
	var languageSlice []string

	switch v := request.(type) {
	case LanguageProvider:
		languageSlice = v.LanguagePreferences()

	case context.Context:
		languageSlice = FromContext(v)

	case string:
		languageSlice = []string{v}

	case []string:
		languageSlice = v

	default:
		logger := util.Log(ctx).WithField("messageID", messageID).WithField("variables", variables)
		logger.Warn("Translate -- no valid request object found, use string, []string, context or a language provider")
		return messageID
	}

	localizer := i18n.NewLocalizer(s.Bundle(), languageSlice...)

	transVersion, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID},
		TemplateData:   variables,
		PluralCount:    pluralCount,
	})

	if err != nil {
		logger := util.Log(ctx).WithError(err).WithField("messageID", messageID)
		logger.Error("Translate -- could not perform translation")
		if transVersion == "" {
			return messageID
		}
	}

	return transVersion
}

// Render translates messageID with variables, selecting the plural form from
// an integer "Count" variable when one is present.
func Render(ctx context.Context, m Manager, request any, messageID string, variables map[string]any) string {
	if count, ok := variables["Count"].(int); ok {
		return m.TranslateWithMapAndCount(ctx, request, messageID, variables, count)
	}
	return m.TranslateWithMap(ctx, request, messageID, variables)
}

// ParseAcceptLanguage splits an Accept-Language style list into tags ordered by weight.
func ParseAcceptLanguage(header string) []string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}

	languages := make([]string, 0, len(tags))
	for _, tag := range tags {
		languages = append(languages, strings.ToLower(tag.String()))
	}
	return languages
}
