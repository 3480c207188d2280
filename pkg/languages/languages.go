package languages

import (
	"sort"
	"strings"

	"github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/messages"
)

type LanguageType int

const (
	CPP LanguageType = iota + 1
)

func (lt LanguageType) String() string {
	for key, value := range LanguageTypeMap {
		if value == lt {
			return key
		}
	}
	return ""
}

var LanguageTypeMap = map[string]LanguageType{
	"CPP": CPP,
}

var LanguageExtensionMap = map[LanguageType]string{
	CPP: "cpp",
}

var LanguageVersionMap = map[LanguageType]map[string]string{
	CPP: {
		"11": "c++11",
		"14": "c++14",
		"17": "c++17",
		"20": "c++20",
	},
}

func GetVersionFlag(language LanguageType, version string) (string, error) {
	if versions, ok := LanguageVersionMap[language]; ok {
		if flag, ok := versions[version]; ok {
			return flag, nil
		}
		return "", errors.ErrInvalidVersion
	}
	return "", errors.ErrInvalidLanguageType
}

// StandardFlags returns the compiler flags selecting the requested standard.
// An empty version selects the compiler default and yields no flags.
func StandardFlags(language LanguageType, version string) ([]string, error) {
	if version == "" {
		return nil, nil
	}
	flag, err := GetVersionFlag(language, version)
	if err != nil {
		return nil, err
	}
	return []string{"-std=" + flag}, nil
}

func ParseLanguageType(s string) (LanguageType, error) {
	if lt, ok := LanguageTypeMap[strings.ToUpper(s)]; ok {
		return lt, nil
	}
	return 0, errors.ErrInvalidLanguageType
}

func GetSupportedLanguagesWithVersions() messages.ResponseHandshakePayload {
	supportedLanguages := make([]messages.LanguageSpec, 0, len(LanguageTypeMap))
	for langType, versions := range LanguageVersionMap {
		versionList := make([]string, 0, len(versions))
		for version := range versions {
			versionList = append(versionList, version)
		}
		sort.Strings(versionList)

		supportedLanguages = append(supportedLanguages, messages.LanguageSpec{
			LanguageName: langType.String(),
			Versions:     versionList,
			Extension:    LanguageExtensionMap[langType],
		})
	}
	return messages.ResponseHandshakePayload{
		Languages: supportedLanguages,
	}
}
