// Package locale holds the operator-facing message catalogues.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Catalog is the set of messages returned to callers.
type Catalog struct {
	Tag                 language.Tag
	QuestionRequired    string
	ServerMisconfigured string
	InternalError       string
	FallbackAnswer      string
	UpstreamErrorPrefix string
}

// UpstreamError formats an error message reported by the upstream API.
func (c Catalog) UpstreamError(message string) string {
	return c.UpstreamErrorPrefix + message
}

var (
	Chinese = Catalog{
		Tag:                 language.Chinese,
		QuestionRequired:    "问题不能为空",
		ServerMisconfigured: "服务器配置错误",
		InternalError:       "服务器内部错误",
		FallbackAnswer:      "抱歉，AI助手暂时无法回答这个问题。",
		UpstreamErrorPrefix: "API返回错误：",
	}
	English = Catalog{
		Tag:                 language.English,
		QuestionRequired:    "Question must not be empty",
		ServerMisconfigured: "Server configuration error",
		InternalError:       "Internal server error",
		FallbackAnswer:      "Sorry, the assistant cannot answer this question right now.",
		UpstreamErrorPrefix: "API error: ",
	}
)

// catalogs is ordered like the matcher; the first entry is the default.
var (
	catalogs = []Catalog{Chinese, English}
	matcher  = language.NewMatcher([]language.Tag{Chinese.Tag, English.Tag})
)

// For returns the catalogue best matching a BCP 47 tag such as "en-US".
// Blank, malformed or unsupported tags get the Chinese catalogue.
func For(tag string) Catalog {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Chinese
	}
	_, idx := language.MatchStrings(matcher, tag)
	if idx < 0 || idx >= len(catalogs) {
		return Chinese
	}
	return catalogs[idx]
}
