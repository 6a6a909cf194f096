package config

const PageGenConfigFilePath = "/etc/pagegen/pagegen.conf"
