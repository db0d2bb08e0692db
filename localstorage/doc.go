// Package localstorage implements guardar.Backend on the browser's Web
// Storage (window.localStorage and window.sessionStorage). It only builds for
// js/wasm.
package localstorage
