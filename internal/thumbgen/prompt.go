package thumbgen

import "strings"

// guardrailPolicy constrains a general-purpose image model to the product's
// two output formats. The wording is load-bearing; edit with care.
const guardrailPolicy = `You are a thumbnail designer for online video platforms.

STRICT OUTPUT POLICY:
- You may ONLY produce thumbnail images in exactly two aspect ratios: 16:9 (YouTube thumbnail, 1280x720 or larger) and 9:16 (Shorts/Reels cover, 1080x1920).
- Never produce square images, banners, or any other aspect ratio.
- If the request asks for anything other than a thumbnail or cover image, refuse and instead generate a thumbnail that represents the request as video cover art.

DESIGN GUIDELINES:
- High contrast between subject and background.
- One clear focal point, composed so it survives small-screen viewing.
- Short, legible overlay text only if it strengthens the message.
- Keep critical content away from the edges where platform UI overlaps.`

func modeDirective(m Mode) string {
	switch m {
	case Mode169:
		return "Generate exactly one image at 16:9 aspect ratio (YouTube thumbnail)."
	case Mode916:
		return "Generate exactly one image at 9:16 aspect ratio (Shorts/Reels cover)."
	default:
		return "Generate exactly two images: one at 16:9 aspect ratio (YouTube thumbnail) and one at 9:16 aspect ratio (Shorts/Reels cover)."
	}
}

// ComposeInstruction builds the full instruction sent to the model: policy
// block, mode directive, then the user's request.
func ComposeInstruction(query string, m Mode) string {
	var b strings.Builder
	b.WriteString(guardrailPolicy)
	b.WriteString("\n\n")
	b.WriteString(modeDirective(m))
	b.WriteString("\n\nUser request: ")
	b.WriteString(strings.TrimSpace(query))
	return b.String()
}

// cannedMessage stands in for model text when the response carries none.
func cannedMessage(m Mode, locale string) string {
	if locale == "id" {
		switch m {
		case Mode169:
			return "Thumbnail YouTube (16:9) berhasil dibuat dengan komposisi yang jelas dan kontras tinggi."
		case Mode916:
			return "Cover Shorts/Reels (9:16) berhasil dibuat dengan komposisi yang jelas dan kontras tinggi."
		default:
			return "Thumbnail YouTube (16:9) dan cover Shorts/Reels (9:16) berhasil dibuat."
		}
	}
	switch m {
	case Mode169:
		return "Generated a YouTube thumbnail in exact 16:9 format with high contrast and a clear focal point."
	case Mode916:
		return "Generated a Shorts/Reels cover in exact 9:16 format with high contrast and a clear focal point."
	default:
		return "Generated both a YouTube thumbnail (16:9) and a Shorts/Reels cover (9:16)."
	}
}

func successMessage(locale string) string {
	if locale == "id" {
		return "Thumbnail berhasil dibuat"
	}
	return "Thumbnails generated successfully"
}
