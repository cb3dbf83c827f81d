// Package theme loads the overlay's CSS. Themes are looked up in
// ~/.config/mosoverlay/themes/ first and then among the embedded ones.
package theme
