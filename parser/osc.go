// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/osc.go
// Summary: Operating System Command handling: titles, cwd, clipboard, colors.

package parser

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/framegrace/ptterm/grid"
)

func (p *Parser) dispatchOSC(payload []byte) {
	s := strings.ToValidUTF8(string(payload), "�")
	cmdPart, arg, _ := strings.Cut(s, ";")
	cmd, err := strconv.Atoi(cmdPart)
	if err != nil {
		p.unhandled("osc", "OSC %q", truncate(s, 32))
		return
	}

	switch cmd {
	case 0:
		p.setTitle(arg)
		p.setIconName(arg)
	case 1:
		p.setIconName(arg)
	case 2:
		p.setTitle(arg)
	case 7:
		if p.onWorkingDir != nil {
			p.onWorkingDir(workingDirFromURI(arg))
		}
	case 10, 11:
		p.handleDefaultColor(cmd, arg)
	case 52:
		p.handleClipboard(arg)
	default:
		p.unhandled("osc", "OSC %d", cmd)
	}
}

func (p *Parser) setTitle(t string) {
	p.title = t
	if p.onTitle != nil {
		p.onTitle(t)
	}
}

func (p *Parser) setIconName(n string) {
	p.iconName = n
	if p.onIcon != nil {
		p.onIcon(n)
	}
}

// workingDirFromURI extracts the path of a file:// URI; anything else is
// passed through unchanged.
func workingDirFromURI(arg string) string {
	u, err := url.Parse(arg)
	if err != nil || u.Scheme != "file" {
		return arg
	}
	return u.Path
}

func (p *Parser) handleClipboard(arg string) {
	selection, data, ok := strings.Cut(arg, ";")
	if !ok {
		p.unhandled("osc", "OSC 52 without data")
		return
	}
	if data == "?" {
		// Clipboard reads are never answered.
		return
	}
	if p.strTruncated {
		p.unhandled("osc", "OSC 52 payload over %d bytes", MaxClipboardPayload)
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		p.unhandled("osc", "OSC 52 bad payload")
		return
	}
	if selection == "" {
		selection = "c"
	}
	if p.onClipboard != nil {
		p.onClipboard(selection, decoded)
	}
}

func (p *Parser) handleDefaultColor(cmd int, arg string) {
	target := &p.defaultFG
	if cmd == 11 {
		target = &p.defaultBG
	}
	if arg == "?" {
		c := *target
		term := "\x1b\\"
		if p.strTermBEL {
			term = "\a"
		}
		p.respond("\x1b]%d;rgb:%04x/%04x/%04x%s", cmd,
			int(c.R)*257, int(c.G)*257, int(c.B)*257, term)
		return
	}
	if c, ok := parseOSCColor(arg); ok {
		*target = c
	}
}

// parseOSCColor accepts rgb:r/g/b with 1-4 hex digits per component and
// #rrggbb.
func parseOSCColor(s string) (grid.Color, bool) {
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return grid.Color{}, false
		}
		return grid.RGBColor(uint8(v>>16), uint8(v>>8), uint8(v)), true
	}
	if !strings.HasPrefix(s, "rgb:") {
		return grid.Color{}, false
	}
	parts := strings.Split(strings.TrimPrefix(s, "rgb:"), "/")
	if len(parts) != 3 {
		return grid.Color{}, false
	}
	var comp [3]uint8
	for i, part := range parts {
		if len(part) == 0 || len(part) > 4 {
			return grid.Color{}, false
		}
		v, err := strconv.ParseUint(part, 16, 16)
		if err != nil {
			return grid.Color{}, false
		}
		// Scale n hex digits to 8 bits.
		maxV := uint64(1)<<(4*len(part)) - 1
		comp[i] = uint8(v * 255 / maxV)
	}
	return grid.RGBColor(comp[0], comp[1], comp[2]), true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
