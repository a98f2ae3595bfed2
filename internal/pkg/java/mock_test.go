//go:generate mockgen -destination=java_mock_test.go -package=java github.com/haveachin/gatekeeper/internal/pkg/java SessionAuthenticator,SessionHandler
package java

import (
	"github.com/gofrs/uuid"
	"github.com/golang/mock/gomock"
)

var aliceUUID = uuid.Must(uuid.FromString("069a79f4-44e9-4026-bff7-c661ee8f6a09"))

func mockAuthenticatorJoined(ctrl *gomock.Controller, username, sessionHash string) *MockSessionAuthenticator {
	auth := NewMockSessionAuthenticator(ctrl)
	auth.EXPECT().
		AuthenticateSession(gomock.Any(), username, sessionHash, gomock.Any()).
		Times(1).
		Return(&Profile{UUID: aliceUUID, Name: username}, nil)
	return auth
}
