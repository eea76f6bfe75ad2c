// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for darkchat.
//
// Colors are Lip Gloss AdaptiveColor values so one palette serves light and
// dark terminals. A Theme bundles the styles every component renders with.
//
// # Usage
//
//	theme := styles.NewTheme(styles.ModeAuto)
//	fmt.Println(theme.UserBubble.Render("hello"))
//
// ModeDark and ModeLight pin the background instead of asking the
// terminal, which is what the ui.theme config key selects.
package styles
