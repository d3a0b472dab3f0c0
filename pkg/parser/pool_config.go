package parser

import "github.com/gnana997/exportfix/pkg/util"

// getDefaultPoolSize sizes parser pools to the worker pool: a worker must
// never block waiting for a parser while another parser sits idle.
func getDefaultPoolSize() int {
	return util.GetOptimalPoolSize()
}
