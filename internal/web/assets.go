package web

import _ "embed"

//go:embed assets/index.html
var indexHTML []byte

//go:embed assets/favicon.svg
var faviconSVG []byte
