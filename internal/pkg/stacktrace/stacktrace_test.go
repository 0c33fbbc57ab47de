package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	t.Parallel()

	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/authotp/internal/pkg/router.middlewareRecoverer.func1.1()
	/app/internal/pkg/router/middleware_recover.go:17 +0x45
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/authotp/internal/identity/usecase.(*Usecase).Login(...)
	/app/internal/identity/usecase/login.go:40
`)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:17",
		"internal/identity/usecase/login.go:40",
	}, InternalPaths(stack))
}

func TestInternalPathsNone(t *testing.T) {
	t.Parallel()

	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/app/main.go:10\n")))
}
