// Copyright (c) 2023 the sddkit authors
//
// MIT License

//go:build debug
// +build debug

package sdd

import "github.com/sirupsen/logrus"

const _DEBUG bool = true
const _LOGLEVEL int = 1

func init() {
	logrus.SetLevel(logrus.DebugLevel)
}
