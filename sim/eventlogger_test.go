package sim

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingHandler struct{}

func (failingHandler) Handle(Event) error {
	return errors.New("negative volume")
}

var _ = Describe("EventLogger", func() {
	var (
		buf    *bytes.Buffer
		engine *SerialEngine
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		engine = NewSerialEngine()
		engine.AcceptHook(NewEventLogger(log.New(buf, "", 0)))
	})

	It("should print step indices", func() {
		engine.Schedule(MakeStepEvent(1.5, failingHandler{}, 3))

		Expect(engine.Run()).To(HaveOccurred())

		Expect(buf.String()).To(ContainSubstring("1.5000000000, step 3\n"))
		Expect(buf.String()).To(ContainSubstring("failed: negative volume"))
	})
})
