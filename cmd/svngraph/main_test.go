package main

import (
	"strings"
	"testing"

	"github.com/helloandre/svndump2git/internal/lineinput"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.Level = logrus.PanicLevel
	return l
}

func TestScannerFindsCopyFromEdge(t *testing.T) {
	const dump = `Revision-number: 1
Prop-content-length: 10
Content-length: 10

PROPS-END

Node-path: trunk/a.txt
Node-kind: file
Node-action: add
Text-content-length: 1
Content-length: 1

x

Revision-number: 2
Prop-content-length: 10
Content-length: 10

PROPS-END

Node-path: branches/b/a.txt
Node-kind: file
Node-action: add
Node-copyfrom-path: trunk/a.txt
Node-copyfrom-rev: 1
Content-length: 0

`
	s := &scanner{logger: testLogger()}
	err := s.scan(lineinput.New(strings.NewReader(dump)))
	assert.NoError(t, err)
	assert.Len(t, s.edges, 1)
	assert.Equal(t, copyEdge{srcRev: 1, src: "trunk/a.txt", rev: 2, dst: "branches/b/a.txt"}, s.edges[0])
}

func TestScannerIgnoresNodesWithoutCopyFrom(t *testing.T) {
	const dump = `Revision-number: 1
Node-path: trunk/a.txt
Node-kind: file
Node-action: add
Text-content-length: 1
Content-length: 1

x
`
	s := &scanner{logger: testLogger()}
	err := s.scan(lineinput.New(strings.NewReader(dump)))
	assert.NoError(t, err)
	assert.Empty(t, s.edges)
}

func TestScannerTracksCurrentRevisionAcrossNodes(t *testing.T) {
	const dump = `Revision-number: 5
Node-path: trunk/a.txt
Node-kind: file
Node-action: add
Node-copyfrom-path: tags/1.0/a.txt
Node-copyfrom-rev: 3
Content-length: 0

Node-path: trunk/b.txt
Node-kind: file
Node-action: add
Node-copyfrom-path: tags/1.0/b.txt
Node-copyfrom-rev: 3
Content-length: 0

`
	s := &scanner{logger: testLogger()}
	err := s.scan(lineinput.New(strings.NewReader(dump)))
	assert.NoError(t, err)
	assert.Len(t, s.edges, 2)
	assert.Equal(t, uint32(5), s.edges[0].rev)
	assert.Equal(t, uint32(5), s.edges[1].rev)
}
