// Package seed 内置的基线数据，首次加载时与持久化数据合并
package seed

import _ "embed"

//go:embed data.json
var Data []byte
