/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package eyecandy renders emoji shortcodes such as ":package:" in output,
// or strips them when emojis are disabled.
package eyecandy

import (
	"fmt"
	"regexp"

	"github.com/kyokomi/emoji/v2"
)

var shortcodeRe = regexp.MustCompile(`:[a-zA-Z0-9-_+]+?:`)

// ESPrintf formats like fmt.Sprintf, with emoji shortcodes in format
// rendered or removed.
func ESPrintf(emojisDisabled bool, format string, v ...interface{}) string {
	if emojisDisabled {
		return fmt.Sprintf(removeEmojiFromString(format), v...)
	}
	return emoji.Sprintf(format, v...)
}

// ESPrint is ESPrintf without formatting.
func ESPrint(emojisDisabled bool, s string) string {
	if emojisDisabled {
		return removeEmojiFromString(s)
	}
	return emoji.Sprint(s)
}

// Prefix puts the emoji for shortcode in front of s, followed by a space.
// With emojis disabled s is returned as is.
func Prefix(emojisDisabled bool, shortcode, s string) string {
	if emojisDisabled {
		return s
	}
	return emoji.Sprint(shortcode) + s
}

func removeEmojiFromString(s string) string {
	return shortcodeRe.ReplaceAllString(s, "")
}
