package kin

import "errors"

var (
	ErrUnknownLink = errors.New("kin: unknown link")

	ErrUnknownJointType = errors.New("kin: unknown joint type")

	ErrNoRootLink = errors.New("kin: body has no links")

	ErrUnknownDevice = errors.New("kin: unknown device type")
)
