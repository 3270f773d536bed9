package docp

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RequestSuite struct {
	suite.Suite
}

func TestRequestSuite(t *testing.T) {
	suite.Run(t, new(RequestSuite))
}

func (s *RequestSuite) marshal(req *Request) string {
	line, err := Marshal(req)
	s.Require().NoError(err)
	s.Require().Equal(byte(Delim), line[len(line)-1], "line must end with the delimiter")
	return string(line[:len(line)-1])
}

func (s *RequestSuite) TestInsertShape() {
	got := s.marshal(NewInsert("users", Document{"name": "ada"}))
	s.JSONEq(`{"action":"insert","collection":"users","data":{"name":"ada"}}`, got)
}

func (s *RequestSuite) TestFindShape() {
	got := s.marshal(NewFind("users", Document{"name": "ada"}, 5))
	s.JSONEq(`{"action":"find","collection":"users","query":{"name":"ada"},"limit":5}`, got)
}

func (s *RequestSuite) TestFindMatchAllOmitsQuery() {
	got := s.marshal(NewFind("users", nil, 0))
	s.JSONEq(`{"action":"find","collection":"users"}`, got)
}

func (s *RequestSuite) TestUpdateStripsEmbeddedID() {
	fields := Document{"id": "bogus", "name": "ada"}
	got := s.marshal(NewUpdate("users", "u1", fields))
	s.JSONEq(`{"action":"update","collection":"users","id":"u1","data":{"name":"ada"}}`, got)
	s.Equal("bogus", fields["id"], "caller's map must not be mutated")
}

func (s *RequestSuite) TestUpsertWithoutIDSendsExplicitNull() {
	got := s.marshal(NewUpsert("users", nil, Document{"name": "ada"}))
	s.JSONEq(`{"action":"upsert","collection":"users","id":null,"data":{"name":"ada"}}`, got)
	s.Contains(got, `"id":null`, "null id must be present on the wire, not omitted")
}

func (s *RequestSuite) TestUpsertWithID() {
	id := "u1"
	got := s.marshal(NewUpsert("users", &id, Document{"name": "ada"}))
	s.JSONEq(`{"action":"upsert","collection":"users","id":"u1","data":{"name":"ada"}}`, got)
}

func (s *RequestSuite) TestDeleteShape() {
	got := s.marshal(NewDelete("users", "u1"))
	s.JSONEq(`{"action":"delete","collection":"users","id":"u1"}`, got)
}

func (s *RequestSuite) TestBareActions() {
	s.JSONEq(`{"action":"count","collection":"users"}`, s.marshal(NewCount("users")))
	s.JSONEq(`{"action":"snapshot"}`, s.marshal(NewSnapshot()))
	s.JSONEq(`{"action":"exit"}`, s.marshal(NewExit()))
}

func (s *RequestSuite) TestMarshalRejectsUnencodableData() {
	_, err := Marshal(NewInsert("users", Document{"ch": make(chan int)}))
	s.Error(err)
}

type ResponseSuite struct {
	suite.Suite
}

func TestResponseSuite(t *testing.T) {
	suite.Run(t, new(ResponseSuite))
}

func (s *ResponseSuite) TestParseOK() {
	resp, err := ParseResponse([]byte(`{"status":"ok","message":"inserted","data":{"id":"u1","name":"ada"}}`))
	s.Require().NoError(err)
	s.True(resp.OK())
	s.NoError(resp.Err())

	doc, err := resp.DocumentData()
	s.Require().NoError(err)
	s.Equal("ada", doc["name"])

	id, ok := doc.ID()
	s.True(ok)
	s.Equal("u1", id)
}

func (s *ResponseSuite) TestParseServerError() {
	resp, err := ParseResponse([]byte(`{"status":"error","message":"no such document"}`))
	s.Require().NoError(err, "an error status is still a well-formed response")
	s.False(resp.OK())

	var srvErr *ServerError
	s.Require().ErrorAs(resp.Err(), &srvErr)
	s.Equal("no such document", srvErr.Message)
}

func (s *ResponseSuite) TestParseMalformed() {
	for _, line := range []string{
		`{"status": oops}`,
		`{"truncated":`,
		`not json at all`,
		`[1,2,3]`,
	} {
		_, err := ParseResponse([]byte(line))
		s.ErrorIs(err, ErrMalformedResponse, "line %q", line)
	}
}

func (s *ResponseSuite) TestParseKeepsUnknownFieldsOutOfTheWay() {
	resp, err := ParseResponse([]byte(`{"status":"ok","id":1}`))
	s.Require().NoError(err)
	s.True(resp.OK())
}

func (s *ResponseSuite) TestDocumentsData() {
	resp, err := ParseResponse([]byte(`{"status":"ok","message":"found","data":[{"id":"a"},{"id":"b"}]}`))
	s.Require().NoError(err)

	docs, err := resp.DocumentsData()
	s.Require().NoError(err)
	s.Len(docs, 2)
}

func (s *ResponseSuite) TestCountData() {
	resp, err := ParseResponse([]byte(`{"status":"ok","message":"counted","data":{"count":42}}`))
	s.Require().NoError(err)

	n, err := resp.CountData()
	s.Require().NoError(err)
	s.Equal(42, n)

	empty := &Response{Status: StatusOK}
	_, err = empty.CountData()
	s.Error(err)
}

func (s *ResponseSuite) TestEmptyPayloadDecodesToNothing() {
	resp := &Response{Status: StatusOK, Message: "bye"}

	doc, err := resp.DocumentData()
	s.NoError(err)
	s.Nil(doc)

	docs, err := resp.DocumentsData()
	s.NoError(err)
	s.Nil(docs)
}
